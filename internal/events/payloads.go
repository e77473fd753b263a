package events

import "github.com/dropDatabas3/hellocoop/internal/domain/repository"

// LoginEvent payload de EventUserLogin.
type LoginEvent struct {
	Account *repository.Account
	Subject string
	Created bool
}

// SettingsEvent payload de EventSettingsSaved. APIRoute es la ruta vigente
// tras el guardado; PreviousRoute la anterior (pueden coincidir).
type SettingsEvent struct {
	APIRoute      string
	PreviousRoute string
}
