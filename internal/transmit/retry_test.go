//go:build linux || darwin

package transmit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"golang.org/x/sys/unix"
)

// congestedWriter fails its first failures writes with ENOBUFS.
type congestedWriter struct {
	failures int
	calls    int
	written  int
}

func (w *congestedWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls <= w.failures {
		return 0, unix.ENOBUFS
	}
	w.written++
	return len(p), nil
}

func fastRetrySender(width int) *Sender {
	s := NewSender(width)
	s.Retry.Backoff = BackoffConfig{InitialDelay: time.Microsecond, Multiplier: 2, MaxDelay: 10 * time.Microsecond}
	return s
}

func TestSendRecoversFromTransientNoBuffers(t *testing.T) {
	for failures := 0; failures < DefaultRetryPolicy().MaxAttempts; failures++ {
		w := &congestedWriter{failures: failures}
		stats, err := fastRetrySender(2).Send(context.Background(), w, canvas.New(2, 2))
		if err != nil {
			t.Fatalf("failures=%d: send: %v", failures, err)
		}
		if stats.Frames != 1 || w.written != 1 {
			t.Fatalf("failures=%d: stats=%+v written=%d", failures, stats, w.written)
		}
		if w.calls != failures+1 {
			t.Fatalf("failures=%d: expected %d calls, got %d", failures, failures+1, w.calls)
		}
	}
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := DefaultRetryPolicy().MaxAttempts
	w := &congestedWriter{failures: 100}
	stats, err := fastRetrySender(2).Send(context.Background(), w, canvas.New(2, 2))
	if !errors.Is(err, unix.ENOBUFS) {
		t.Fatalf("expected ENOBUFS, got %v", err)
	}
	if w.calls != attempts {
		t.Fatalf("expected %d attempts, got %d", attempts, w.calls)
	}
	if stats.Frames != 0 {
		t.Fatalf("no frame should count: %+v", stats)
	}
}

func TestSendDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	w := writerFunc(func(p []byte) (int, error) {
		calls++
		return 0, unix.EMSGSIZE
	})
	if _, err := fastRetrySender(2).Send(context.Background(), w, canvas.New(2, 2)); !errors.Is(err, unix.EMSGSIZE) {
		t.Fatalf("expected EMSGSIZE, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent error retried: %d calls", calls)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
