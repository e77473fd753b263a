// Package user resuelve la cuenta de la sesión actual para GET /user y para
// op=auth del endpoint Hellō.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/user"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/session"
)

// SessionReader lo implementa *session.Manager.
type SessionReader interface {
	CurrentFromContext(ctx context.Context) (*session.Data, error)
}

// PictureURLs traduce el URI de un archivo a su URL pública (*blob.FS).
type PictureURLs interface {
	URL(uri string) string
}

// UserService operaciones sobre la sesión actual.
type UserService interface {
	// Me devuelve la cuenta logueada o session.ErrNoSession.
	Me(ctx context.Context) (dto.UserResponse, error)
	hello.AuthSource
}

// Deps dependencias del dominio user.
type Deps struct {
	Sessions SessionReader
	Accounts repository.AccountRepository
	Files    repository.FileRepository
	Pictures PictureURLs
}

// Services agrupa los services del dominio.
type Services struct {
	User UserService
}

// NewServices crea el agregador.
func NewServices(d Deps) Services {
	return Services{User: NewUserService(d)}
}

type userService struct {
	deps Deps
}

// NewUserService crea el service.
func NewUserService(d Deps) UserService {
	return &userService{deps: d}
}

func (s *userService) Me(ctx context.Context) (dto.UserResponse, error) {
	sess, err := s.deps.Sessions.CurrentFromContext(ctx)
	if err != nil {
		return dto.UserResponse{}, err
	}
	acc, err := s.deps.Accounts.GetByID(ctx, sess.AccountID)
	if repository.IsNotFound(err) {
		// La cuenta ya no existe: para el cliente es lo mismo que no tener sesión.
		return dto.UserResponse{}, session.ErrNoSession
	}
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("user: load account: %w", err)
	}
	if acc.Status == repository.AccountBlocked {
		return dto.UserResponse{}, session.ErrNoSession
	}

	return dto.UserResponse{
		ID:          acc.ID,
		Name:        acc.Name,
		Email:       acc.Email,
		Status:      string(acc.Status),
		Subject:     sess.Subject,
		PictureURL:  s.pictureURL(ctx, acc.PictureFileID),
		CreatedAt:   acc.CreatedAt,
		LastLoginAt: acc.LastLoginAt,
	}, nil
}

// Auth implementa hello.AuthSource. Sin sesión no es error: isLoggedIn=false.
func (s *userService) Auth(ctx context.Context) (hello.AuthStatus, error) {
	me, err := s.Me(ctx)
	if session.IsNoSession(err) || errors.Is(err, session.ErrUnbound) {
		return hello.AuthStatus{IsLoggedIn: false}, nil
	}
	if err != nil {
		return hello.AuthStatus{}, err
	}
	return hello.AuthStatus{
		IsLoggedIn: true,
		Subject:    me.Subject,
		Email:      me.Email,
		Name:       me.Name,
		Picture:    me.PictureURL,
	}, nil
}

func (s *userService) pictureURL(ctx context.Context, fileID string) string {
	if fileID == "" || s.deps.Files == nil || s.deps.Pictures == nil {
		return ""
	}
	f, err := s.deps.Files.GetByID(ctx, fileID)
	if err != nil {
		logger.From(ctx).Warn("picture file lookup failed", logger.Layer("service"), logger.FileID(fileID), logger.Err(err))
		return ""
	}
	return s.deps.Pictures.URL(f.URI)
}
