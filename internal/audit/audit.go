// Package audit escribe líneas de auditoría estructuradas para los eventos de
// sesión. Por ahora el único sink es el logger.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// Subscriber traduce eventos del bus a entradas de auditoría.
type Subscriber struct {
	log *zap.Logger
}

// New crea un Subscriber. Con log nil usa logger.L().
func New(log *zap.Logger) *Subscriber {
	if log == nil {
		log = logger.L()
	}
	return &Subscriber{log: log.Named("audit")}
}

// Register suscribe el auditor a login, logout y cambios de settings.
func (s *Subscriber) Register(bus *events.Bus) {
	bus.Subscribe(events.EventUserLogin, s.handle)
	bus.Subscribe(events.EventUserLogout, s.handle)
	bus.Subscribe(events.EventSettingsSaved, s.handle)
}

func (s *Subscriber) handle(ctx context.Context, name string, payload any) error {
	fields := []zap.Field{logger.Event(name)}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		fields = append(fields, logger.RequestID(rid))
	}

	switch p := payload.(type) {
	case events.LoginEvent:
		if p.Account != nil {
			fields = append(fields, logger.AccountID(p.Account.ID), logger.EmailMasked(p.Account.Email))
		}
		fields = append(fields, logger.Subject(p.Subject), logger.Bool("created", p.Created))
	case *events.LoginEvent:
		return s.handle(ctx, name, *p)
	case events.SettingsEvent:
		fields = append(fields, logger.String("api_route", p.APIRoute))
		if p.PreviousRoute != p.APIRoute {
			fields = append(fields, logger.String("previous_route", p.PreviousRoute))
		}
	}

	s.log.Info("audit", fields...)
	return nil
}
