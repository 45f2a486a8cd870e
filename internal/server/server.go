// Package server assembles a display server: one composite surface, one
// shared lock, an ingest loop per UDP port, layer expiry and the admin
// HTTP router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/pixelstream/internal/composite"
	"github.com/danmuck/pixelstream/internal/config"
	"github.com/danmuck/pixelstream/internal/ingest"
	"github.com/danmuck/pixelstream/internal/node"
	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrNotOpen = errors.New("server: listeners not open")

type Server struct {
	ID       string
	Appeared time.Time

	cfg     config.ServerConfig
	surface *composite.Composite
	lock    *sync.Mutex
	loops   []*ingest.Loop
	router  *gin.Engine
}

var _ node.Node = (*Server)(nil)

// New builds the surface and router; sockets are bound by Open.
func New(id string, cfg config.ServerConfig) (*Server, error) {
	if err := config.ValidateServerConfig(cfg); err != nil {
		return nil, err
	}
	var transport composite.Transport = composite.Discard{}
	if cfg.Transport == config.TransportPPM {
		transport = composite.PPMFile{Path: cfg.PPMPath}
	}

	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, id))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Appeared: time.Now(),
		cfg:      cfg,
		surface:  composite.New(cfg.Width, cfg.Height, cfg.Layers, transport),
		lock:     &sync.Mutex{},
		router:   r,
	}
	s.RegisterRoutes()
	return s, nil
}

func (s *Server) NodeID() string                { return s.ID }
func (s *Server) Kind() string                  { return "display" }
func (s *Server) HTTPRouter() *gin.Engine       { return s.router }
func (s *Server) Surface() *composite.Composite { return s.surface }

// Lock is the surface lock. Any other producer drawing on Surface must
// hold it for its whole draw-then-flush.
func (s *Server) Lock() sync.Locker { return s.lock }

// Open binds every configured port. On failure the sockets already bound
// are closed and the error is returned as a startup failure.
func (s *Server) Open(ctx context.Context) error {
	loops := make([]*ingest.Loop, 0, len(s.cfg.Ports))
	closeAll := func() {
		for _, l := range loops {
			_ = l.Close()
		}
	}
	for _, port := range s.cfg.Ports {
		conn, err := ingest.Listen(ctx, ingest.ListenConfig{Port: port, RecvBuffer: s.cfg.RecvBuffer})
		if err != nil {
			closeAll()
			return err
		}
		bound := conn.LocalAddr().(*net.UDPAddr).Port
		loop, err := ingest.NewLoop("udp:"+strconv.Itoa(bound), conn, s.surface, s.lock)
		if err != nil {
			conn.Close()
			closeAll()
			return err
		}
		loops = append(loops, loop)
		log.Info().Str("component", "server.Open").Str("id", s.ID).Int("port", bound).Msg("ipv6 udp listener ready")
	}
	s.loops = loops
	return nil
}

// Serve runs the ingest loops, layer expiry and the admin HTTP server
// until ctx is canceled or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if len(s.loops) == 0 {
		return ErrNotOpen
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, loop := range s.loops {
		loop := loop
		g.Go(func() error {
			return loop.Run(ctx)
		})
	}
	g.Go(func() error {
		return ingest.RunLayerExpiry(ctx, s.surface, s.lock, s.cfg.LayerTimeout, 0)
	})
	if s.cfg.AdminAddr != "" {
		g.Go(func() error {
			return s.serveAdmin(ctx)
		})
	}
	err := g.Wait()
	log.Info().Str("component", "server.Serve").Str("id", s.ID).Err(err).Msg("stopped")
	return err
}

func (s *Server) serveAdmin(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.AdminAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("component", "server.serveAdmin").Str("addr", s.cfg.AdminAddr).Msg("admin http ready")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: admin http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// LoopStatus is one listener as reported by /stats.
type LoopStatus struct {
	Name  string       `json:"name"`
	State string       `json:"state"`
	Stats ingest.Stats `json:"stats"`
}

// Addrs lists the bound ingest sockets.
func (s *Server) Addrs() []net.Addr {
	out := make([]net.Addr, 0, len(s.loops))
	for _, l := range s.loops {
		out = append(out, l.LocalAddr())
	}
	return out
}

func (s *Server) LoopStatuses() []LoopStatus {
	out := make([]LoopStatus, 0, len(s.loops))
	for _, l := range s.loops {
		out = append(out, LoopStatus{Name: l.Name(), State: l.State().String(), Stats: l.Stats()})
	}
	return out
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
