// Package user contiene el controller de GET /user.
package user

import (
	"context"
	"net/http"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/user"
	httperrors "github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/user"
	"github.com/dropDatabas3/hellocoop/internal/session"
)

// LoginURLFunc devuelve el href del botón de login con los settings vigentes.
type LoginURLFunc func(ctx context.Context) string

// Controllers agrupa los controllers del dominio user.
type Controllers struct {
	User *UserController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services, loginURL LoginURLFunc) *Controllers {
	return &Controllers{User: NewUserController(s.User, loginURL)}
}

// UserController maneja GET /user.
type UserController struct {
	service  svc.UserService
	loginURL LoginURLFunc
}

// NewUserController crea el controller.
func NewUserController(service svc.UserService, loginURL LoginURLFunc) *UserController {
	return &UserController{service: service, loginURL: loginURL}
}

// Me devuelve la cuenta logueada o 401 con login_url.
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, err := c.service.Me(ctx)
	switch {
	case session.IsNoSession(err):
		resp := dto.LoginRequiredResponse{
			Code:    httperrors.ErrUnauthorized.Code,
			Message: httperrors.ErrUnauthorized.Message,
		}
		if c.loginURL != nil {
			resp.LoginURL = c.loginURL(ctx)
		}
		helpers.WriteJSON(w, http.StatusUnauthorized, resp)
	case err != nil:
		httperrors.Write(w, r, err)
	default:
		helpers.WriteJSON(w, http.StatusOK, me)
	}
}
