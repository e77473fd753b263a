package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/store"
)

func TestAccounts_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	conn := New()
	accounts := conn.Accounts()

	acc, err := accounts.Create(ctx, repository.CreateAccountInput{
		Name: "Ann", Email: "A@X.com", Provider: "hellocoop", Subject: "sub_1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, acc.ID)
	require.Equal(t, repository.AccountActive, acc.Status)

	got, err := accounts.GetBySubject(ctx, "hellocoop", "sub_1")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	got, err = accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	_, err = accounts.GetBySubject(ctx, "hellocoop", "sub_2")
	require.True(t, repository.IsNotFound(err))

	_, err = accounts.Create(ctx, repository.CreateAccountInput{Name: "Dup", Provider: "hellocoop", Subject: "sub_1"})
	require.True(t, repository.IsConflict(err))
	require.Equal(t, 1, conn.AccountCount())
}

func TestAccounts_SaveAndLink(t *testing.T) {
	ctx := context.Background()
	conn := New()
	accounts := conn.Accounts()

	acc, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "Ann", Email: "a@x.com"})
	require.NoError(t, err)

	acc.Name = "Annie"
	acc.PictureFileID = "42"
	require.NoError(t, accounts.Save(ctx, acc))

	got, err := accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, "Annie", got.Name)
	require.Equal(t, "42", got.PictureFileID)

	require.NoError(t, accounts.LinkSubject(ctx, acc.ID, "hellocoop", "sub_9"))
	require.NoError(t, accounts.LinkSubject(ctx, acc.ID, "hellocoop", "sub_9"))

	other, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "Bob"})
	require.NoError(t, err)
	require.True(t, repository.IsConflict(accounts.LinkSubject(ctx, other.ID, "hellocoop", "sub_9")))

	require.True(t, repository.IsNotFound(accounts.Save(ctx, &repository.Account{ID: "missing"})))
}

func TestFiles(t *testing.T) {
	ctx := context.Background()
	files := New().Files()

	f, err := files.Create(ctx, repository.CreateFileInput{URI: "public://user_pictures/a.jpg", Size: 3, MimeType: "image/jpeg"})
	require.NoError(t, err)

	got, err := files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, f.URI, got.URI)

	_, err = files.Create(ctx, repository.CreateFileInput{})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestRegistered(t *testing.T) {
	conn, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	require.Equal(t, "memory", conn.Name())
}

func TestAccounts_SaveAndLinkIsAtomic(t *testing.T) {
	ctx := context.Background()
	accounts := New().Accounts()

	a, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "A", Provider: "hellocoop", Subject: "s_a"})
	require.NoError(t, err)
	b, err := accounts.Create(ctx, repository.CreateAccountInput{Name: "B"})
	require.NoError(t, err)

	b.Name = "B2"
	require.True(t, repository.IsConflict(accounts.SaveAndLink(ctx, b, "hellocoop", "s_a")))
	got, err := accounts.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "B", got.Name)

	require.True(t, repository.IsNotFound(accounts.SaveAndLink(ctx, &repository.Account{ID: "ghost"}, "hellocoop", "s_g")))
	_, err = accounts.GetBySubject(ctx, "hellocoop", "s_g")
	require.True(t, repository.IsNotFound(err))

	require.NoError(t, accounts.SaveAndLink(ctx, b, "hellocoop", "s_b"))
	got, err = accounts.GetBySubject(ctx, "hellocoop", "s_b")
	require.NoError(t, err)
	require.Equal(t, "B2", got.Name)

	sub, err := accounts.SubjectFor(ctx, a.ID, "hellocoop")
	require.NoError(t, err)
	require.Equal(t, "s_a", sub)
	_, err = accounts.SubjectFor(ctx, b.ID, "other")
	require.True(t, repository.IsNotFound(err))
}
