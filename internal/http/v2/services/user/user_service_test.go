package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/store/adapters/memory"
)

type fakeSessions struct {
	data *session.Data
	err  error
}

func (f fakeSessions) CurrentFromContext(context.Context) (*session.Data, error) { return f.data, f.err }

type prefixURLs string

func (p prefixURLs) URL(uri string) string { return string(p) + uri }

func TestMe(t *testing.T) {
	ctx := context.Background()
	conn := memory.New()
	file, err := conn.Files().Create(ctx, repository.CreateFileInput{URI: "public://user_pictures/profile_a.jpg"})
	require.NoError(t, err)
	acc, err := conn.Accounts().Create(ctx, repository.CreateAccountInput{
		Name: "Ann", Email: "ann@x.com", PictureFileID: file.ID, Provider: "hellocoop", Subject: "sub_1",
	})
	require.NoError(t, err)

	svc := NewUserService(Deps{
		Sessions: fakeSessions{data: &session.Data{AccountID: acc.ID, Subject: "sub_1"}},
		Accounts: conn.Accounts(),
		Files:    conn.Files(),
		Pictures: prefixURLs("https://cdn/"),
	})

	me, err := svc.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, acc.ID, me.ID)
	require.Equal(t, "sub_1", me.Subject)
	require.Equal(t, "https://cdn/public://user_pictures/profile_a.jpg", me.PictureURL)

	st, err := svc.Auth(ctx)
	require.NoError(t, err)
	require.True(t, st.IsLoggedIn)
	require.Equal(t, "Ann", st.Name)
	require.Equal(t, "ann@x.com", st.Email)
}

func TestMe_NoSession(t *testing.T) {
	conn := memory.New()
	svc := NewUserService(Deps{Sessions: fakeSessions{err: session.ErrNoSession}, Accounts: conn.Accounts()})

	_, err := svc.Me(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)

	st, err := svc.Auth(context.Background())
	require.NoError(t, err)
	require.False(t, st.IsLoggedIn)
}

func TestMe_DeletedOrBlockedAccount(t *testing.T) {
	ctx := context.Background()
	conn := memory.New()

	svc := NewUserService(Deps{Sessions: fakeSessions{data: &session.Data{AccountID: "gone"}}, Accounts: conn.Accounts()})
	_, err := svc.Me(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	acc, err := conn.Accounts().Create(ctx, repository.CreateAccountInput{Name: "B", Status: repository.AccountBlocked})
	require.NoError(t, err)
	svc = NewUserService(Deps{Sessions: fakeSessions{data: &session.Data{AccountID: acc.ID}}, Accounts: conn.Accounts()})
	_, err = svc.Me(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
}
