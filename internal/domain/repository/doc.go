// Package repository define los contratos del directorio de cuentas y del
// registro de archivos, independientes del almacenamiento.
//
// Las implementaciones viven en internal/store/adapters/ (postgres, sqlite,
// memory):
//
//	┌──────────────────────────────────────────┐
//	│     services (account reconciler, ...)   │
//	└──────────────────────────────────────────┘
//	                    │
//	                    ▼
//	┌──────────────────────────────────────────┐
//	│  domain/repository (interfaces)          │
//	│  AccountRepository, FileRepository       │
//	└──────────────────────────────────────────┘
//	                    │
//	       ┌────────────┼────────────┐
//	       ▼            ▼            ▼
//	┌───────────┐ ┌───────────┐ ┌───────────┐
//	│ postgres  │ │  sqlite   │ │  memory   │
//	└───────────┘ └───────────┘ └───────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Lookups sin resultado devuelven ErrNotFound, violaciones de unicidad
//     ErrConflict.
package repository
