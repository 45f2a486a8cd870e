package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ftsend: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &sendOptions{}
	root := &cobra.Command{
		Use:   "ftsend",
		Short: "Send pixels to a display server",
		Long: `ftsend paints a canvas and streams it to a display server as one or more
UDP frames. The display defaults to $FT_DISPLAY, then ft.noise:1337.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.register(root)
	root.AddCommand(
		fillCmd(opts),
		gradientCmd(opts),
		ppmCmd(opts),
	)
	return root
}
