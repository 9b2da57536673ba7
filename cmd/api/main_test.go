package main

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type fakeJob struct {
	mu      sync.Mutex
	started chan struct{}
	stopped bool
	once    sync.Once
}

func newFakeJob() *fakeJob {
	return &fakeJob{started: make(chan struct{})}
}

func (j *fakeJob) Start(ctx context.Context) error {
	j.once.Do(func() { close(j.started) })
	<-ctx.Done()
	return nil
}

func (j *fakeJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopped = true
}

func (j *fakeJob) wasStarted() bool {
	select {
	case <-j.started:
		return true
	default:
		return false
	}
}

func newQuietApp() *fiber.App {
	return fiber.New(fiber.Config{DisableStartupMessage: true})
}

func TestServeDoesNotStartJobWhenBindFails(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer occupied.Close()

	job := newFakeJob()
	err = serve(context.Background(), newQuietApp(), occupied.Addr().String(), job, time.Second, zap.NewNop())
	if err == nil {
		t.Fatal("serve() expected bind error, got nil")
	}
	if job.wasStarted() {
		t.Fatal("job must not start when the listener fails to bind")
	}
}

func TestServeStartsJobAfterListenAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := newFakeJob()
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, newQuietApp(), "127.0.0.1:0", job, time.Second, zap.NewNop())
	}()

	select {
	case <-job.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start after the listener was bound")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("serve() unexpected error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	if !job.stopped {
		t.Fatal("job should be stopped on shutdown")
	}
}
