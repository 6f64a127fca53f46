package demo

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RestoreSnapshot copies the demo database snapshot over dst. It must run
// before dst is opened.
func RestoreSnapshot(snapshot, dst string) error {
	src, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("open demo snapshot: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	tmp := dst + ".restore"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy demo snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// ResetFunc puts the live data back into its demo state.
type ResetFunc func(ctx context.Context) error

// Resetter calls its ResetFunc on a fixed interval so visitors always see
// fresh demo data.
type Resetter struct {
	interval time.Duration
	reset    ResetFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewResetter(interval time.Duration, reset ResetFunc) *Resetter {
	return &Resetter{interval: interval, reset: reset}
}

// Start launches the reset loop. A non-positive interval disables it.
func (r *Resetter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval <= 0 || r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.reset(ctx); err != nil {
					log.Printf("Demo reset failed: %v", err)
				} else {
					log.Printf("Demo data reset")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("Demo data resets every %v", r.interval)
}

// Stop ends the loop and waits for a running reset to finish.
func (r *Resetter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
