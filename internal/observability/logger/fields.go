package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Route(v string) zap.Field { return zap.String("route", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS DE IDENTIDAD
// =================================================================================

// AccountID identifica la cuenta local.
func AccountID(v string) zap.Field { return zap.String("account_id", v) }

// Subject es el identificador opaco que entrega Hellō.
func Subject(v string) zap.Field { return zap.String("sub", v) }

func Provider(v string) zap.Field { return zap.String("provider", v) }

func ClientID(v string) zap.Field { return zap.String("client_id", v) }

func FileID(v string) zap.Field { return zap.String("file_id", v) }

// EmailMasked loguea el email enmascarado (primeros 2 chars + @dominio).
// No hay helper para el email en claro a propósito.
func EmailMasked(v string) zap.Field { return zap.String("email_masked", MaskEmail(v)) }

func Event(v string) zap.Field { return zap.String("event", v) }

// =================================================================================
// CAMPOS DE SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

// Layer: controller, service, repository, middleware.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// =================================================================================
// GENÉRICOS
// =================================================================================

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// MaskEmail deja visibles los dos primeros caracteres y el dominio.
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
