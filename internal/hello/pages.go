package hello

import (
	"bytes"
	"html/template"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1"><title>{{.}}</title></head><body>{{end}}

{{define "error"}}{{template "head" "Hellō error"}}
<main class="hello-error">
  <h1>{{.Error}}</h1>
  {{with .Description}}<p>{{.}}</p>{{end}}
  {{with .URI}}<p><a href="{{.}}">More information</a></p>{{end}}
  <p><a href="{{.TargetURI}}">Continue</a></p>
</main></body></html>{{end}}

{{define "same_site"}}{{template "head" "Same-Site Page"}}
<script>
  const u = new URL(window.location.href);
  u.searchParams.set("same_site", "1");
  window.location.replace(u.toString());
</script>
<noscript><p>Cookies are required to sign in with Hellō.</p></noscript>
</body></html>{{end}}

{{define "bounce"}}{{template "head" "Redirecting..."}}
<p>You are being redirected to the target URI.</p>
<script>
  const u = new URL(window.location.href);
  const frag = new URLSearchParams(u.hash.substring(1));
  if (frag.toString()) {
    u.hash = "";
    frag.forEach((v, k) => u.searchParams.set(k, v));
    window.location.replace(u.toString());
  }
</script>
</body></html>{{end}}

{{define "wildcard_console"}}{{template "head" "Hellō wildcard console"}}
<main>
  <h1>{{.AppName}}</h1>
  <p>This login was started from <code>{{.URI}}</code>, which is not a registered redirect URI.</p>
  <p>Add <code>{{.RedirectURI}}</code> to the application in the Hellō console.</p>
  <p><a href="{{.TargetURI}}">Continue</a></p>
</main></body></html>{{end}}
`))

// PageRenderer renderiza las páginas HTML del endpoint.
type PageRenderer interface {
	ErrorPage(errCode, description, errURI, targetURI string) ([]byte, error)
	SameSitePage() ([]byte, error)
	RedirectBouncePage() ([]byte, error)
	WildcardConsolePage(uri, targetURI, appName, redirectURI string) ([]byte, error)
}

// HTMLPages implementación html/template.
type HTMLPages struct{}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (HTMLPages) ErrorPage(errCode, description, errURI, targetURI string) ([]byte, error) {
	if targetURI == "" {
		targetURI = "/"
	}
	return render("error", struct{ Error, Description, URI, TargetURI string }{errCode, description, errURI, targetURI})
}

func (HTMLPages) SameSitePage() ([]byte, error) { return render("same_site", nil) }

func (HTMLPages) RedirectBouncePage() ([]byte, error) { return render("bounce", nil) }

func (HTMLPages) WildcardConsolePage(uri, targetURI, appName, redirectURI string) ([]byte, error) {
	if targetURI == "" {
		targetURI = "/"
	}
	return render("wildcard_console", struct{ URI, TargetURI, AppName, RedirectURI string }{uri, targetURI, appName, redirectURI})
}
