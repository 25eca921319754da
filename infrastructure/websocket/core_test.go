package websocket

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/stretchr/testify/require"
)

func TestDispatchAfterStopDoesNotBlock(t *testing.T) {
	core := NewCore(logger.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		core.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for range 2000 {
			core.Dispatch([]string{"c1"}, event.NewError("x", "y"))
		}
		core.Unregister(&Client{ID: "c1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked on a stopped core")
	}
	require.ErrorIs(t, core.Register(&Client{ID: "c2"}), ErrCoreStopped)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://townhall.example"}, "", true},
		{"nothing configured", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed", []string{"https://townhall.example"}, "https://townhall.example", true},
		{"not listed", []string{"https://townhall.example"}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			require.Equal(t, tt.want, checkOrigin(tt.allowed)(r))
		})
	}
}
