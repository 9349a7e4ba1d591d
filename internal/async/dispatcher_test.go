package async

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsTask(t *testing.T) {
	d := New(nil, time.Second)
	var ran atomic.Bool
	d.Go("mark", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !ran.Load() {
		t.Fatalf("task did not run")
	}
}

func TestDispatcherLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	d := New(log.New(&buf, "", 0), time.Second)
	d.Go("boom", func(ctx context.Context) error {
		return errors.New("kaput")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !strings.Contains(buf.String(), "boom") || !strings.Contains(buf.String(), "kaput") {
		t.Fatalf("failure not logged, got %q", buf.String())
	}
}

func TestDispatcherDrainTimeout(t *testing.T) {
	d := New(nil, time.Minute)
	release := make(chan struct{})
	d.Go("slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Drain(ctx); err == nil {
		t.Fatalf("expected drain timeout")
	}
	close(release)
}
