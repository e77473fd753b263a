package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var okPing = pingerFunc(func(context.Context) error { return nil })

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		cache      Pinger
		wantStatus string
		wantStore  string
		wantCache  string
	}{
		{"all ok", okPing, okPing, "ready", "ok", "ok"},
		{"store down", pingerFunc(func(context.Context) error { return errors.New("refused") }), okPing, "unavailable", "error", "ok"},
		{"cache missing", okPing, nil, "unavailable", "ok", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHealthService(Deps{Store: tt.store, Cache: tt.cache, Version: "1.2.3"})
			resp := svc.Check(context.Background())
			require.Equal(t, tt.wantStatus, resp.Status)
			require.Equal(t, tt.wantStore, resp.Components["store"].Status)
			require.Equal(t, tt.wantCache, resp.Components["cache"].Status)
			require.Equal(t, "1.2.3", resp.Version)
		})
	}
}
