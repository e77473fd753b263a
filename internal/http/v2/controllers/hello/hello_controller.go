// Package hello monta el dispatcher del endpoint Hellō en api_route.
package hello

import (
	"net/http"

	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// Controllers agrupa los controllers del dominio hello.
type Controllers struct {
	Endpoint *EndpointController
}

// NewControllers crea el agregador.
func NewControllers(client *hello.Client) *Controllers {
	return &Controllers{Endpoint: NewEndpointController(client)}
}

// EndpointController maneja GET/POST <api_route>.
type EndpointController struct {
	client *hello.Client
}

// NewEndpointController crea el controller.
func NewEndpointController(client *hello.Client) *EndpointController {
	return &EndpointController{client: client}
}

// Dispatch delega en hello.Client.Route.
func (c *EndpointController) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Component("hello"))
	ctx := logger.ToContext(r.Context(), log)
	c.client.Route(w, r.WithContext(ctx))
}
