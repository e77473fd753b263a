// Package admin contiene los controllers de la API de administración.
package admin

import (
	"net/http"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/admin"
	httperrors "github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/admin"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// Controllers agrupa los controllers del dominio admin.
type Controllers struct {
	Settings *SettingsController
}

// NewControllers crea el agregador de controllers admin.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Settings: NewSettingsController(s.Settings)}
}

// SettingsController maneja /admin/hello/*.
type SettingsController struct {
	service svc.SettingsService
}

// NewSettingsController crea el controller.
func NewSettingsController(service svc.SettingsService) *SettingsController {
	return &SettingsController{service: service}
}

// Get maneja GET /admin/hello/settings[?client_id=...]
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := c.service.Get(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		httperrors.Write(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Update maneja PUT /admin/hello/settings
func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SettingsController.Update"))

	var req dto.UpdateSettingsRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, err)
		return
	}

	resp, err := c.service.Update(ctx, req)
	if err != nil {
		log.Debug("settings update rejected", logger.Err(err))
		httperrors.Write(w, r, httperrors.FromError(err).WithDetail(err.Error()))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// RotateSecret maneja POST /admin/hello/settings/secret
func (c *SettingsController) RotateSecret(w http.ResponseWriter, r *http.Request) {
	resp, err := c.service.RotateSecret(r.Context())
	if err != nil {
		httperrors.Write(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Quickstart maneja GET /admin/hello/quickstart. Con ?redirect=1 responde
// 302 directo al asistente.
func (c *SettingsController) Quickstart(w http.ResponseWriter, r *http.Request) {
	resp := c.service.Quickstart(r.Context())
	if r.URL.Query().Get("redirect") == "1" {
		helpers.Redirect(w, resp.URL)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
