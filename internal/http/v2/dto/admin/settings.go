// Package admin contiene DTOs de la API de administración.
package admin

// SettingsResponse vista de los settings de Hellō. El secreto nunca sale;
// solo se informa si existe.
type SettingsResponse struct {
	APIRoute     string   `json:"api_route"`
	AppID        string   `json:"app_id"`
	HasSecret    bool     `json:"has_secret"`
	ProviderHint []string `json:"provider_hint"`
	Scope        []string `json:"scope"`
	RedirectURI  string   `json:"redirect_uri"`
	LoginURL     string   `json:"login_url"`
}

// UpdateSettingsRequest body de PUT /admin/hello/settings.
type UpdateSettingsRequest struct {
	APIRoute     string   `json:"api_route"`
	AppID        string   `json:"app_id"`
	ProviderHint []string `json:"provider_hint"`
	Scope        []string `json:"scope"`
}

// SecretResponse respuesta de la rotación. Única vez que se expone el secreto.
type SecretResponse struct {
	Secret string `json:"secret"`
}

// QuickstartResponse URL del asistente de alta.
type QuickstartResponse struct {
	URL string `json:"url"`
}
