// Package events es el bus de extension points: los módulos se suscriben por
// nombre de evento y el núcleo notifica sin consultar resultados.
package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// Nombres de eventos emitidos por el servicio.
const (
	EventUserLogin     = "hellocoop_user_login"
	EventUserLogout    = "hellocoop_user_logout"
	EventSettingsSaved = "hellocoop_settings_saved"
)

// Notifier emite eventos. Fire-and-forget: no devuelve error.
type Notifier interface {
	Notify(ctx context.Context, name string, payload any)
}

// Handler procesa un evento. Un error se loguea y no corta al resto.
type Handler func(ctx context.Context, name string, payload any) error

// Bus despacha eventos de forma sincrónica, en orden de suscripción.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus crea un bus vacío.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registra h para el evento name.
func (b *Bus) Subscribe(name string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], h)
	b.mu.Unlock()
}

// Notify invoca a cada suscriptor de name. Un panic en un handler se
// recupera y se loguea igual que un error.
func (b *Bus) Notify(ctx context.Context, name string, payload any) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	log := logger.From(ctx).With(logger.Component("events"), logger.Event(name))
	for i, h := range hs {
		if err := safeCall(ctx, h, name, payload); err != nil {
			log.Warn("event handler failed", zap.Int("handler", i), logger.Err(err))
		}
	}
}

func safeCall(ctx context.Context, h Handler, name string, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, name, payload)
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(ctx context.Context, name string, payload any)

func (f NotifierFunc) Notify(ctx context.Context, name string, payload any) { f(ctx, name, payload) }

// Nop descarta todos los eventos.
var Nop Notifier = NotifierFunc(func(context.Context, string, any) {})
