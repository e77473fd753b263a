package hello

import (
	"net/url"
	"strings"
)

// LoginURL arma el href del botón "Continue with Hellō".
func LoginURL(baseURL string, scope, providerHint []string) string {
	return baseURL + "?op=login" +
		"&target_uri=/user" +
		"&scope=" + url.QueryEscape(strings.Join(scope, " ")) +
		"&provider_hint=" + url.QueryEscape(strings.Join(providerHint, " "))
}
