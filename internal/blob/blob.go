// Package blob es el almacén durable de archivos públicos (fotos de perfil).
//
// Los bytes se escriben atómicamente bajo Root y solo después se crea el
// registro en el FileRepository. Un FileRef devuelto sin error siempre
// apunta a contenido completo en disco.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/observability/tracing"
	"github.com/dropDatabas3/hellocoop/internal/util/atomicwrite"
)

// Scheme prefijo de los URIs públicos.
const Scheme = "public://"

var (
	ErrInvalidHint = errors.New("blob: invalid path hint")
	ErrEmpty       = errors.New("blob: empty content")
)

// FileRef referencia a un archivo persistido.
type FileRef struct {
	ID  string
	URI string
}

// Writer persiste bytes y devuelve su referencia.
type Writer interface {
	WriteBytes(ctx context.Context, data []byte, pathHint string) (FileRef, error)
}

// FS implementa Writer sobre el filesystem local.
type FS struct {
	Root    string
	BaseURL string // URL pública que sirve Root, p.ej. http://localhost:8080/files
	Files   repository.FileRepository
}

// NewFS crea un FS. root es el directorio servido en baseURL.
func NewFS(root, baseURL string, files repository.FileRepository) *FS {
	return &FS{Root: root, BaseURL: strings.TrimRight(baseURL, "/"), Files: files}
}

// WriteBytes escribe data en la ubicación indicada por pathHint
// (public://dir/name.ext) y registra el archivo.
func (f *FS) WriteBytes(ctx context.Context, data []byte, pathHint string) (FileRef, error) {
	ctx, span := tracing.Tracer().Start(ctx, "blob.WriteBytes")
	defer span.End()
	span.SetAttributes(attribute.String("blob.hint", pathHint), attribute.Int("blob.size", len(data)))

	ref, err := f.write(ctx, data, pathHint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FileRef{}, err
	}
	logger.From(ctx).Debug("blob written",
		logger.Component("blob"), logger.FileID(ref.ID), logger.String("uri", ref.URI), logger.Int("size", len(data)))
	return ref, nil
}

func (f *FS) write(ctx context.Context, data []byte, pathHint string) (FileRef, error) {
	if len(data) == 0 {
		return FileRef{}, ErrEmpty
	}
	rel, err := Relative(pathHint)
	if err != nil {
		return FileRef{}, err
	}

	dst := filepath.Join(f.Root, filepath.FromSlash(rel))
	if err := atomicwrite.WriteFile(dst, data, 0o644); err != nil {
		return FileRef{}, fmt.Errorf("blob: write %s: %w", rel, err)
	}

	rec, err := f.Files.Create(ctx, repository.CreateFileInput{
		URI:      Scheme + rel,
		Size:     int64(len(data)),
		MimeType: http.DetectContentType(data),
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("blob: record %s: %w", rel, err)
	}
	return FileRef{ID: rec.ID, URI: rec.URI}, nil
}

// URL traduce un URI public:// a la URL servida.
func (f *FS) URL(uri string) string {
	rel, err := Relative(uri)
	if err != nil {
		return ""
	}
	return f.BaseURL + "/" + rel
}

// Relative valida un URI public:// y devuelve el path relativo limpio.
// Rechaza traversal y paths absolutos.
func Relative(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok || rest == "" {
		return "", ErrInvalidHint
	}
	if strings.Contains(rest, "\\") {
		return "", ErrInvalidHint
	}
	clean := path.Clean("/" + rest)[1:]
	if clean == "" || clean != rest || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidHint
	}
	return clean, nil
}
