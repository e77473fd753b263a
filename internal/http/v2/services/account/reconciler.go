package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/observability/tracing"
)

// Provider nombre del proveedor en el mapping externo.
const Provider = "hellocoop"

// Errores del reconciler. Los de sesión se propagan sin envolver.
var (
	ErrPayloadInvalid = errors.New("account: payload missing required field")
	ErrPictureFetch   = errors.New("account: picture fetch failed")
	ErrPictureIngest  = errors.New("account: picture ingest failed")
	ErrPersistence    = errors.New("account: persistence failed")
)

// Policy estrategia de resolución de cuenta.
type Policy string

const (
	// PolicySubject resuelve solo por (provider, subject).
	PolicySubject Policy = "subject"
	// PolicyEmail resuelve por email.
	PolicyEmail Policy = "email"
	// PolicyHybrid subject primero, luego email. El match por subject gana.
	PolicyHybrid Policy = "hybrid"
)

// ParsePolicy valida el nombre de la política ("" = subject).
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySubject, nil
	case PolicySubject, PolicyEmail, PolicyHybrid:
		return p, nil
	default:
		return "", fmt.Errorf("account: unknown policy %q", s)
	}
}

// SessionFinalizer subsistema de sesión.
type SessionFinalizer interface {
	FinalizeLogin(ctx context.Context, acc *repository.Account, subject string) error
	Logout(ctx context.Context) error
}

// Reconciler implementa hello.SessionHook.
type Reconciler struct {
	deps Deps
}

var _ hello.SessionHook = (*Reconciler)(nil)

// NewReconciler crea el reconciler.
func NewReconciler(d Deps) *Reconciler {
	if d.Events == nil {
		d.Events = events.Nop
	}
	if d.Policy == "" {
		d.Policy = PolicySubject
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &Reconciler{deps: d}
}

// OnLogin hook del endpoint. Un payload sin subject ni email no hace nada.
func (r *Reconciler) OnLogin(ctx context.Context, p hello.Payload) (hello.Payload, error) {
	if p.Empty() {
		return p, nil
	}
	return p, r.ReconcileLogin(ctx, p)
}

// OnLogout hook del endpoint.
func (r *Reconciler) OnLogout(ctx context.Context) error {
	return r.ReconcileLogout(ctx)
}

// resolution cuenta resuelta. draft = todavía no existe en el directorio.
type resolution struct {
	acc         *repository.Account
	draft       bool
	linkSubject bool
}

// ReconcileLogin carga o crea la cuenta de p, aplica los campos, ingesta la
// foto y persiste. Recién después finaliza la sesión y notifica.
func (r *Reconciler) ReconcileLogin(ctx context.Context, p hello.Payload) (err error) {
	ctx, span := tracing.Tracer().Start(ctx, "account.ReconcileLogin")
	created := false
	defer func() {
		r.deps.Metrics.ObserveLogin(resultLabel(err), created && err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p = normalize(p)
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("account.reconciler"),
		logger.Op("ReconcileLogin"),
		logger.Subject(p.Subject),
		zap.String("policy", string(r.deps.Policy)),
	)
	span.SetAttributes(attribute.String("hellocoop.policy", string(r.deps.Policy)))

	// Paso 1: resolver cuenta
	res, err := r.resolve(ctx, log, p)
	if err != nil {
		log.Debug("resolve failed", logger.Err(err))
		return err
	}
	acc := res.acc
	if !res.draft {
		log = log.With(logger.AccountID(acc.ID))
	}

	// Paso 2: merge de campos
	if p.Name != "" {
		acc.Name = p.Name
	}
	if p.Email != "" && !strings.EqualFold(acc.Email, p.Email) {
		if r.emailAvailable(ctx, log, acc, p.Email) {
			acc.Email = p.Email
		}
	}

	// Paso 3: foto. Primero bytes persistidos, después el link.
	if p.Picture != "" {
		fileID, err := r.ingestPicture(ctx, p.Picture)
		if err != nil {
			log.Warn("picture ingestion aborted login", logger.Err(err))
			return err
		}
		acc.PictureFileID = fileID
	}

	// Paso 4: persistir
	now := r.deps.Now().UTC()
	acc.LastLoginAt = &now
	if acc, err = r.persist(ctx, res, p.Subject); err != nil {
		log.Error("persist failed", logger.Err(err))
		return err
	}
	created = res.draft

	// Paso 5: sesión y notificación
	if err := r.deps.Session.FinalizeLogin(ctx, acc, p.Subject); err != nil {
		log.Error("session finalize failed", logger.AccountID(acc.ID), logger.Err(err))
		return err
	}
	r.deps.Events.Notify(ctx, events.EventUserLogin, events.LoginEvent{Account: acc, Subject: p.Subject, Created: created})

	log.Info("login reconciled", logger.AccountID(acc.ID), logger.Bool("created", created))
	return nil
}

func (r *Reconciler) resolve(ctx context.Context, log *zap.Logger, p hello.Payload) (resolution, error) {
	switch r.deps.Policy {
	case PolicyEmail:
		if p.Email == "" {
			return resolution{}, fmt.Errorf("%w: email", ErrPayloadInvalid)
		}
		return r.byEmail(ctx, log, p, false)

	case PolicyHybrid:
		if p.Subject == "" && p.Email == "" {
			return resolution{}, fmt.Errorf("%w: subject or email", ErrPayloadInvalid)
		}
		if p.Subject != "" {
			acc, err := r.deps.Accounts.GetBySubject(ctx, Provider, p.Subject)
			switch {
			case err == nil:
				return resolution{acc: acc}, nil
			case !repository.IsNotFound(err):
				return resolution{}, fmt.Errorf("%w: lookup subject: %w", ErrPersistence, err)
			}
		}
		if p.Email == "" {
			return r.draft(), nil
		}
		return r.byEmail(ctx, log, p, p.Subject != "")

	default:
		if p.Subject == "" {
			return resolution{}, fmt.Errorf("%w: subject", ErrPayloadInvalid)
		}
		acc, err := r.deps.Accounts.GetBySubject(ctx, Provider, p.Subject)
		switch {
		case err == nil:
			return resolution{acc: acc}, nil
		case repository.IsNotFound(err):
			return r.draft(), nil
		default:
			return resolution{}, fmt.Errorf("%w: lookup subject: %w", ErrPersistence, err)
		}
	}
}

// byEmail resuelve por email. Con link, una cuenta que ya tiene otro
// subject de Hellō no se adopta: el login sigue como cuenta nueva.
func (r *Reconciler) byEmail(ctx context.Context, log *zap.Logger, p hello.Payload, link bool) (resolution, error) {
	acc, err := r.deps.Accounts.GetByEmail(ctx, p.Email)
	switch {
	case repository.IsNotFound(err):
		return r.draft(), nil
	case err != nil:
		return resolution{}, fmt.Errorf("%w: lookup email: %w", ErrPersistence, err)
	case !link:
		return resolution{acc: acc}, nil
	}

	existing, err := r.deps.Accounts.SubjectFor(ctx, acc.ID, Provider)
	switch {
	case repository.IsNotFound(err):
		return resolution{acc: acc, linkSubject: true}, nil
	case err != nil:
		return resolution{}, fmt.Errorf("%w: lookup linked subject: %w", ErrPersistence, err)
	case existing != p.Subject:
		log.Warn("email matches an account linked to another subject, not linking",
			logger.AccountID(acc.ID), logger.EmailMasked(p.Email), zap.String("linked_sub", existing))
		return r.draft(), nil
	}
	return resolution{acc: acc}, nil
}

func (r *Reconciler) draft() resolution {
	return resolution{
		acc:   &repository.Account{Status: repository.AccountActive},
		draft: true,
	}
}

// emailAvailable aplica el guard: email libre o ya de esta cuenta. Un
// guard que salta se loguea y el login sigue con el email anterior.
func (r *Reconciler) emailAvailable(ctx context.Context, log *zap.Logger, acc *repository.Account, email string) bool {
	owner, err := r.deps.Accounts.GetByEmail(ctx, email)
	switch {
	case repository.IsNotFound(err):
		return true
	case err != nil:
		log.Warn("email guard lookup failed, keeping previous email", logger.EmailMasked(email), logger.Err(err))
	case acc.ID != "" && owner.ID == acc.ID:
		return true
	default:
		log.Warn("email belongs to another account, keeping previous email",
			logger.EmailMasked(email), zap.String("owner_id", owner.ID))
	}
	r.deps.Metrics.ObserveEmailGuard()
	return false
}

func (r *Reconciler) ingestPicture(ctx context.Context, url string) (string, error) {
	if r.deps.Fetcher == nil || r.deps.Blobs == nil {
		return "", fmt.Errorf("%w: picture storage not configured", ErrPictureIngest)
	}
	data, err := r.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPictureFetch, err)
	}
	hint := "public://user_pictures/profile_" + r.deps.NewID() + ".jpg"
	ref, err := r.deps.Blobs.WriteBytes(ctx, data, hint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPictureIngest, err)
	}
	if strings.TrimSpace(ref.ID) == "" {
		return "", fmt.Errorf("%w: empty file id", ErrPictureIngest)
	}
	return ref.ID, nil
}

func (r *Reconciler) persist(ctx context.Context, res resolution, subject string) (*repository.Account, error) {
	acc := res.acc
	if res.draft {
		createdAcc, err := r.deps.Accounts.Create(ctx, repository.CreateAccountInput{
			Name:          acc.Name,
			Email:         acc.Email,
			Status:        acc.Status,
			PictureFileID: acc.PictureFileID,
			LastLoginAt:   acc.LastLoginAt,
			Provider:      providerFor(subject),
			Subject:       subject,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create: %w", ErrPersistence, err)
		}
		return createdAcc, nil
	}

	if res.linkSubject {
		if err := r.deps.Accounts.SaveAndLink(ctx, acc, Provider, subject); err != nil {
			return nil, fmt.Errorf("%w: save and link: %w", ErrPersistence, err)
		}
		return acc, nil
	}
	if err := r.deps.Accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	return acc, nil
}

// ReconcileLogout notifica y cierra la sesión. Los errores de sesión se
// propagan tal cual.
func (r *Reconciler) ReconcileLogout(ctx context.Context) error {
	r.deps.Metrics.ObserveLogout()
	r.deps.Events.Notify(ctx, events.EventUserLogout, nil)
	return r.deps.Session.Logout(ctx)
}

func normalize(p hello.Payload) hello.Payload {
	p.Subject = strings.TrimSpace(p.Subject)
	p.Email = strings.TrimSpace(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	p.Picture = strings.TrimSpace(p.Picture)
	return p
}

func providerFor(subject string) string {
	if subject == "" {
		return ""
	}
	return Provider
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPayloadInvalid):
		return "payload_invalid"
	case errors.Is(err, ErrPictureFetch):
		return "picture_fetch"
	case errors.Is(err, ErrPictureIngest):
		return "picture_ingest"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "session"
	}
}
