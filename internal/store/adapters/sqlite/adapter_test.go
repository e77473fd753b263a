package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/store"
)

func openTest(t *testing.T) *Conn {
	t.Helper()
	conn, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "again.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, second.Ping(ctx))
	require.NoError(t, second.Close())
}

func TestAccounts_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	accounts := openTest(t).Accounts()

	login := time.Now().UTC().Truncate(time.Millisecond)
	acc, err := accounts.Create(ctx, repository.CreateAccountInput{
		Name: "Ann", Email: "Ann@Example.com", LastLoginAt: &login,
		Provider: "hellocoop", Subject: "sub_1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, acc.ID)
	require.Equal(t, repository.AccountActive, acc.Status)

	got, err := accounts.GetBySubject(ctx, "hellocoop", "sub_1")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)
	require.Equal(t, "Ann", got.Name)
	require.NotNil(t, got.LastLoginAt)
	require.True(t, login.Equal(*got.LastLoginAt))
	require.Empty(t, got.PictureFileID)

	got, err = accounts.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	_, err = accounts.GetByEmail(ctx, "")
	require.True(t, repository.IsNotFound(err))

	_, err = accounts.GetByID(ctx, "missing")
	require.True(t, repository.IsNotFound(err))
}

func TestAccounts_CreateDuplicateSubjectIsConflict(t *testing.T) {
	ctx := context.Background()
	conn := openTest(t)
	accounts := conn.Accounts()

	_, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "A", Provider: "hellocoop", Subject: "dup"})
	require.NoError(t, err)

	_, err = accounts.Create(ctx, repository.CreateAccountInput{Name: "B", Provider: "hellocoop", Subject: "dup"})
	require.True(t, repository.IsConflict(err))

	var n int
	require.NoError(t, conn.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM account`).Scan(&n))
	require.Equal(t, 1, n, "rolled back account insert")
}

func TestAccounts_SaveWithPicture(t *testing.T) {
	ctx := context.Background()
	conn := openTest(t)
	accounts, files := conn.Accounts(), conn.Files()

	acc, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "Ann"})
	require.NoError(t, err)

	f, err := files.Create(ctx, repository.CreateFileInput{URI: "public://user_pictures/p.jpg", Size: 3, MimeType: "image/jpeg"})
	require.NoError(t, err)

	acc.Name = "Annie"
	acc.PictureFileID = f.ID
	require.NoError(t, accounts.Save(ctx, acc))

	got, err := accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, "Annie", got.Name)
	require.Equal(t, f.ID, got.PictureFileID)

	acc.PictureFileID = "not-a-file"
	require.ErrorIs(t, accounts.Save(ctx, acc), repository.ErrInvalidInput)

	require.True(t, repository.IsNotFound(accounts.Save(ctx, &repository.Account{ID: "ghost"})))
}

func TestAccounts_LinkSubject(t *testing.T) {
	ctx := context.Background()
	accounts := openTest(t).Accounts()

	a, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "A"})
	require.NoError(t, err)
	b, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, accounts.LinkSubject(ctx, a.ID, "hellocoop", "s"))
	require.NoError(t, accounts.LinkSubject(ctx, a.ID, "hellocoop", "s"))
	require.True(t, repository.IsConflict(accounts.LinkSubject(ctx, b.ID, "hellocoop", "s")))

	got, err := accounts.GetBySubject(ctx, "hellocoop", "s")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestFiles_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	files := openTest(t).Files()

	_, err := files.Create(ctx, repository.CreateFileInput{})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	f, err := files.Create(ctx, repository.CreateFileInput{URI: "public://x.jpg", Size: 10, MimeType: "image/jpeg"})
	require.NoError(t, err)

	got, err := files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, f.URI, got.URI)
	require.EqualValues(t, 10, got.Size)

	_, err = files.GetByID(ctx, "nope")
	require.True(t, repository.IsNotFound(err))
}

func TestAdapter_Registered(t *testing.T) {
	a, ok := store.GetAdapter("sqlite")
	require.True(t, ok)
	require.Equal(t, "sqlite", a.Name())
}

func TestAccounts_SaveAndLinkIsAtomic(t *testing.T) {
	ctx := context.Background()
	accounts := openTest(t).Accounts()

	a, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "A", Provider: "hellocoop", Subject: "s_a"})
	require.NoError(t, err)
	b, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "B"})
	require.NoError(t, err)

	// mapping tomado: el update de B no se aplica
	b.Name = "B2"
	require.True(t, repository.IsConflict(accounts.SaveAndLink(ctx, b, "hellocoop", "s_a")))
	got, err := accounts.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "B", got.Name)

	// update inválido: el mapping no se escribe
	b.PictureFileID = "not-a-file"
	require.ErrorIs(t, accounts.SaveAndLink(ctx, b, "hellocoop", "s_b"), repository.ErrInvalidInput)
	_, err = accounts.GetBySubject(ctx, "hellocoop", "s_b")
	require.True(t, repository.IsNotFound(err))

	b.PictureFileID = ""
	require.NoError(t, accounts.SaveAndLink(ctx, b, "hellocoop", "s_b"))
	got, err = accounts.GetBySubject(ctx, "hellocoop", "s_b")
	require.NoError(t, err)
	require.Equal(t, "B2", got.Name)

	sub, err := accounts.SubjectFor(ctx, a.ID, "hellocoop")
	require.NoError(t, err)
	require.Equal(t, "s_a", sub)
	_, err = accounts.SubjectFor(ctx, a.ID, "other")
	require.True(t, repository.IsNotFound(err))
}
