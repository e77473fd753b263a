package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/admin"
)

const adminKeyHeader = "X-Admin-API-Key"

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.APIKey != "" {
		req.Header.Set(adminKeyHeader, c.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// call hace el request y falla con el body si el status no es 2xx.
func (c *client) call(op, method, path string, body []byte) ([]byte, error) {
	status, b, err := c.do(method, path, body)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("%s fallo: status=%d body=%s", op, status, strings.TrimSpace(string(b)))
	}
	return b, nil
}

func (c *client) print(body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	fmt.Println(strings.TrimSpace(string(body)))
}

func main() {
	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:           "hellocoop",
		Short:         "CLI admin para el servicio de login Hellō (/admin/hello)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", envOr("HELLOCOOP_URL", "http://localhost:8080"), "URL base del servicio (env HELLOCOOP_URL)")
	root.PersistentFlags().StringVar(&cl.APIKey, "admin-api-key", os.Getenv("HELLOCOOP_ADMIN_KEY"), "API key de administración (env HELLOCOOP_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", envOr("HELLOCOOP_OUT", "text"), "Formato de salida: json|text")

	// ping: /readyz es público
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Verifica que el servicio esté listo",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call("ping", http.MethodGet, "/readyz", nil)
			if err != nil {
				return err
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(b)
			return nil
		},
	}

	settingsCmd := &cobra.Command{Use: "settings", Short: "Settings de Hellō"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Muestra los settings actuales",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call("settings show", http.MethodGet, "/admin/hello/settings", nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}

	var (
		setRoute, setAppID string
		setHints, setScope []string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Actualiza los settings (los flags omitidos conservan su valor)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call("settings set", http.MethodGet, "/admin/hello/settings", nil)
			if err != nil {
				return err
			}
			var cur dto.SettingsResponse
			if err := json.Unmarshal(b, &cur); err != nil {
				return fmt.Errorf("settings set: respuesta inválida: %w", err)
			}

			f := cmd.Flags()
			if f.Changed("api-route") {
				cur.APIRoute = setRoute
			}
			if f.Changed("app-id") {
				cur.AppID = setAppID
			}
			if f.Changed("provider-hint") {
				cur.ProviderHint = setHints
			}
			if f.Changed("scope") {
				cur.Scope = setScope
			}
			payload, _ := json.Marshal(dto.UpdateSettingsRequest{
				APIRoute:     cur.APIRoute,
				AppID:        cur.AppID,
				ProviderHint: cur.ProviderHint,
				Scope:        cur.Scope,
			})
			b, err = cl.call("settings set", http.MethodPut, "/admin/hello/settings", payload)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}
	setCmd.Flags().StringVar(&setRoute, "api-route", "", "Ruta del endpoint de Hellō (ej. /api/hellocoop)")
	setCmd.Flags().StringVar(&setAppID, "app-id", "", "client_id de la app en Hellō")
	setCmd.Flags().StringSliceVar(&setHints, "provider-hint", nil, "Provider hints (ej. github,gitlab,-email)")
	setCmd.Flags().StringSliceVar(&setScope, "scope", nil, "Scopes pedidos (openid se agrega siempre)")

	secretCmd := &cobra.Command{Use: "secret", Short: "Secreto de la app"}
	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Genera un secreto nuevo (se muestra una sola vez)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call("secret rotate", http.MethodPost, "/admin/hello/settings/secret", nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}

	quickstartCmd := &cobra.Command{
		Use:   "quickstart",
		Short: "Imprime la URL del asistente de alta de Hellō",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call("quickstart", http.MethodGet, "/admin/hello/quickstart", nil)
			if err != nil {
				return err
			}
			if cl.OutFormat == "text" {
				var v dto.QuickstartResponse
				if json.Unmarshal(b, &v) == nil && v.URL != "" {
					fmt.Println(v.URL)
					return nil
				}
			}
			cl.print(b)
			return nil
		},
	}

	settingsCmd.AddCommand(showCmd, setCmd)
	secretCmd.AddCommand(rotateCmd)
	root.AddCommand(pingCmd, settingsCmd, secretCmd, quickstartCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
