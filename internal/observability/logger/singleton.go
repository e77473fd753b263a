package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.RWMutex
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger del proceso. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		mu.Lock()
		instance = build(cfg)
		mu.Unlock()
	})
}

// L retorna el logger del proceso. Sin Init previo arranca en dev/info.
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Replace cambia el logger del proceso. Pensado para tests que necesitan
// observar los logs (zaptest/observer); devuelve una función que restaura
// el anterior.
func Replace(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := instance
	instance = l
	mu.Unlock()
	return func() {
		mu.Lock()
		instance = prev
		mu.Unlock()
	}
}

// Named retorna un logger hijo con nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna un logger con campos persistentes.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushea buffers pendientes. Llamar con defer en main.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
