// Package atomicwrite escribe archivos de forma atómica: tmp en el mismo
// directorio, fsync y rename. Si rename falla (Windows con destino bloqueado)
// reintenta con remove+rename, preservando lo viejo si el segundo intento falla.
package atomicwrite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrTooLarge el contenido superó el límite de WriteFrom.
var ErrTooLarge = errors.New("atomicwrite: content too large")

// WriteFile escribe data en path.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	_, err := write(path, perm, func(w io.Writer) (int64, error) {
		n, err := w.Write(data)
		return int64(n), err
	})
	return err
}

// WriteFrom copia r en path, hasta max bytes (max <= 0 = sin límite).
// Devuelve los bytes escritos. Si r excede max no se toca el destino.
func WriteFrom(path string, r io.Reader, max int64, perm fs.FileMode) (int64, error) {
	return write(path, perm, func(w io.Writer) (int64, error) {
		if max <= 0 {
			return io.Copy(w, r)
		}
		n, err := io.Copy(w, io.LimitReader(r, max+1))
		if err == nil && n > max {
			return n, ErrTooLarge
		}
		return n, err
	})
}

func write(path string, perm fs.FileMode, fill func(io.Writer) (int64, error)) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	// Cleanup en caso de error; tras el rename el Remove no encuentra nada
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	n, err := fill(tmp)
	if err != nil {
		return n, fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp: %w", err)
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return n, fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return n, nil
}
