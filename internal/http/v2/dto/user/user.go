// Package user contiene DTOs de GET /user.
package user

import "time"

// UserResponse cuenta de la sesión actual.
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Status      string     `json:"status"`
	Subject     string     `json:"sub"`
	PictureURL  string     `json:"picture,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginRequiredResponse 401 con el link del botón de login.
type LoginRequiredResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	LoginURL string `json:"login_url"`
}
