package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_NotifyInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(EventUserLogin, func(_ context.Context, name string, p any) error {
		got = append(got, "a:"+p.(string))
		return nil
	})
	b.Subscribe(EventUserLogin, func(_ context.Context, name string, p any) error {
		got = append(got, "b:"+name)
		return nil
	})
	b.Subscribe(EventUserLogout, func(context.Context, string, any) error {
		got = append(got, "logout")
		return nil
	})

	b.Notify(context.Background(), EventUserLogin, "x")
	require.Equal(t, []string{"a:x", "b:" + EventUserLogin}, got)
}

func TestBus_HandlerFailuresDoNotStopOthers(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe("e", func(context.Context, string, any) error { return errors.New("boom") })
	b.Subscribe("e", func(context.Context, string, any) error { panic("kaboom") })
	b.Subscribe("e", func(context.Context, string, any) error { calls++; return nil })

	require.NotPanics(t, func() { b.Notify(context.Background(), "e", nil) })
	require.Equal(t, 1, calls)
}

func TestBus_NoSubscribers(t *testing.T) {
	b := NewBus()
	b.Subscribe("e", nil)
	require.NotPanics(t, func() { b.Notify(context.Background(), "e", nil) })
	require.NotPanics(t, func() { Nop.Notify(context.Background(), "e", nil) })
}
