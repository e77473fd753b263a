// Package store provee el registry de adaptadores del directorio de cuentas.
//
// Cada adapter se registra en init(); el binario los habilita con un import
// en blanco:
//
//	import _ "github.com/dropDatabas3/hellocoop/internal/store/adapters/sqlite"
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
)

// Adapter crea conexiones a un backend de almacenamiento.
type Adapter interface {
	// Name: "postgres", "sqlite", "memory".
	Name() string

	// Connect abre la conexión y aplica migraciones pendientes.
	Connect(ctx context.Context, cfg AdapterConfig) (Connection, error)
}

// Connection es una conexión activa con sus repositorios.
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Accounts() repository.AccountRepository
	Files() repository.FileRepository
}

// AdapterConfig configuración para conectar.
type AdapterConfig struct {
	Name string

	// DSN: connection string (postgres) o path del archivo (sqlite).
	DSN string

	// Solo postgres.
	MaxOpenConns int
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init(); un nombre
// duplicado es un error de programación y hace panic.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión con el adapter cfg.Name.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (Connection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (have %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
