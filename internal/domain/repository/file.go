package repository

import (
	"context"
	"time"
)

// File es el registro de un archivo ya escrito en el blob store.
type File struct {
	ID        string
	URI       string // public://user_pictures/...
	Size      int64
	MimeType  string
	CreatedAt time.Time
}

// CreateFileInput datos para registrar un archivo.
type CreateFileInput struct {
	URI      string
	Size     int64
	MimeType string
}

// FileRepository registra archivos persistidos.
type FileRepository interface {
	Create(ctx context.Context, input CreateFileInput) (*File, error)
	GetByID(ctx context.Context, id string) (*File, error)
}
