package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// errorResponse structura interna para la serialización JSON.
// Esto nos permite controlar exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// Write es WriteError más el log de la causa con el logger del request.
// 5xx se loguea como error, el resto en debug.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	log := logger.From(r.Context())
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("request error", logger.String("code", appErr.Code), logger.Err(appErr.Err))
	} else {
		log.Debug("request error", logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}
	WriteError(w, appErr)
}
