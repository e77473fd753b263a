package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/store/adapters/memory"
)

func TestFS_WriteBytes(t *testing.T) {
	root := t.TempDir()
	conn := memory.New()
	fs := NewFS(root, "http://localhost:8080/files/", conn.Files())

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'}
	ref, err := fs.WriteBytes(context.Background(), data, "public://user_pictures/profile_1.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, ref.ID)
	require.Equal(t, "public://user_pictures/profile_1.jpg", ref.URI)

	got, err := os.ReadFile(filepath.Join(root, "user_pictures", "profile_1.jpg"))
	require.NoError(t, err)
	require.Equal(t, data, got)

	rec, err := conn.Files().GetByID(context.Background(), ref.ID)
	require.NoError(t, err)
	require.EqualValues(t, len(data), rec.Size)
	require.Equal(t, "image/jpeg", rec.MimeType)

	require.Equal(t, "http://localhost:8080/files/user_pictures/profile_1.jpg", fs.URL(ref.URI))
}

func TestFS_RejectsBadInput(t *testing.T) {
	fs := NewFS(t.TempDir(), "", memory.New().Files())
	ctx := context.Background()

	_, err := fs.WriteBytes(ctx, nil, "public://a.jpg")
	require.ErrorIs(t, err, ErrEmpty)

	for _, hint := range []string{"", "a.jpg", "public://", "public://../x.jpg", "public://a/../../x", "public:///etc/passwd", `public://a\b`} {
		_, err := fs.WriteBytes(ctx, []byte("x"), hint)
		require.ErrorIs(t, err, ErrInvalidHint, hint)
	}
}

type failingFiles struct{}

func (failingFiles) Create(context.Context, repository.CreateFileInput) (*repository.File, error) {
	return nil, errors.New("db down")
}

func (failingFiles) GetByID(context.Context, string) (*repository.File, error) {
	return nil, repository.ErrNotFound
}

func TestFS_RecordFailure(t *testing.T) {
	fs := NewFS(t.TempDir(), "", failingFiles{})
	_, err := fs.WriteBytes(context.Background(), []byte("x"), "public://a.jpg")
	require.Error(t, err)
}
