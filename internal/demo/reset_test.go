package demo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestRestoreSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "demo.db")
	dst := filepath.Join(dir, "data", "elibrary.db")

	if err := os.WriteFile(snapshot, []byte("snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RestoreSnapshot(snapshot, dst); err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "snapshot" {
		t.Errorf("unexpected content %q", got)
	}

	if err := RestoreSnapshot(filepath.Join(dir, "missing.db"), dst); err == nil {
		t.Error("expected an error for a missing snapshot")
	}
}

func TestResetter(t *testing.T) {
	var calls atomic.Int32
	r := NewResetter(10*time.Millisecond, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("first reset fails")
		}
		return nil
	})

	r.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	if calls.Load() < 2 {
		t.Fatalf("expected the loop to keep running after a failure, got %d calls", calls.Load())
	}

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Error("resets continued after Stop")
	}
	r.Stop()
}

func TestResetter_Disabled(t *testing.T) {
	r := NewResetter(0, func(ctx context.Context) error {
		t.Error("reset must not run")
		return nil
	})
	r.Start(context.Background())
	r.Stop()
}
