package chess

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/park285/immersive-chess/internal/voxel"
	"github.com/park285/immersive-chess/internal/worldlink"
)

type fakeSource struct {
	mu      sync.Mutex
	cb      worldlink.EventCallback
	removed bool
	ready   chan struct{}
}

func (f *fakeSource) OnEvent(cb worldlink.EventCallback) int {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
	close(f.ready)
	return 1
}

func (f *fakeSource) RemoveEventCallback(int) {
	f.mu.Lock()
	f.removed = true
	f.mu.Unlock()
}

func (f *fakeSource) emit(e *worldlink.Event) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(e)
}

func TestServeHandlesStreamEvents(t *testing.T) {
	f := newFixture(t)
	src := &fakeSource{ready: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.Serve(ctx, src) }()

	<-src.ready
	src.emit(nil)
	src.emit(&worldlink.Event{ID: "e1", Kind: worldlink.EventUseCase, Player: "bob", Pos: voxel.Pos(2, 64, 1)})

	deadline := time.Now().Add(5 * time.Second)
	for {
		id, err := f.store.BoardAt(context.Background(), voxel.Pos(2, 64, 1))
		if err == nil && id != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event not handled: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if !src.removed {
		t.Fatalf("callback not removed")
	}
}
