package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/port"
	"github.com/boddenberg/hub-avance-go/internal/saga"
	"github.com/boddenberg/hub-avance-go/internal/taxid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var registrationTracer = otel.Tracer("service/registration")

// Saga step names, also used as metric labels.
const (
	stepSignup  = "signup"
	stepProfile = "profile"
	stepLicense = "license"
)

// RegistrationConfig holds the registration knobs read from config.
type RegistrationConfig struct {
	SignupRedirectTo      string
	EnforcePasswordPolicy bool
	CompensationTimeout   time.Duration
}

// RegistrationService provisions an Account, completes its Profile and
// opens its License, undoing the Account if a later step fails.
type RegistrationService struct {
	identity port.IdentityProvider
	profiles port.ProfileStore
	ledger   port.LicenseLedger
	cfg      RegistrationConfig
	runner   *saga.Runner
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistrationService creates a registration service.
func NewRegistrationService(
	identity port.IdentityProvider,
	profiles port.ProfileStore,
	ledger port.LicenseLedger,
	cfg RegistrationConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RegistrationService {
	runner := saga.NewRunner("registration", logger,
		saga.WithCompensationTimeout(cfg.CompensationTimeout),
		saga.WithObserver(func(step string, err error) {
			outcome := "ok"
			if err != nil {
				outcome = "failed"
			}
			metrics.IncrCompensation(step, outcome)
		}),
	)
	return &RegistrationService{
		identity: identity,
		profiles: profiles,
		ledger:   ledger,
		cfg:      cfg,
		runner:   runner,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// registration is one validated request.
type registration struct {
	email    string
	password string
	cpf      string
	name     *string
	whatsapp *string
}

// ============================================================
// Register: POST /api/register
// ============================================================

// Register runs duplicate check → signup → profile → license. Every
// returned error is a *domain.Error.
func (s *RegistrationService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	ctx, span := registrationTracer.Start(ctx, "RegistrationService.Register")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("register", time.Since(start)) }()

	resp, err := s.register(ctx, req)
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			de = domain.WrapError(domain.CodeServerError, err)
		}
		s.metrics.IncrRegistration(string(de.Code))
		span.SetAttributes(attribute.String("registration.result", string(de.Code)))
		return nil, de
	}

	s.metrics.IncrRegistration("ok")
	span.SetAttributes(attribute.String("registration.result", "ok"))
	return resp, nil
}

func (s *RegistrationService) register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	in, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.profiles.ProfileExistsByCPF(ctx, in.cpf)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		s.logger.Error("duplicate check failed", observability.Email(in.email), zap.Error(err))
		return nil, domain.WrapError(domain.CodeServerError, err)
	}
	if exists {
		return nil, domain.NewError(domain.CodeCPFExists, "")
	}

	var userID string
	err = s.runner.Run(ctx,
		saga.Step{
			Name: stepSignup,
			Do: func(ctx context.Context) error {
				id, err := s.signUp(ctx, in)
				userID = id
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.identity.DeleteUser(ctx, userID)
			},
		},
		saga.Step{
			Name: stepProfile,
			Do: func(ctx context.Context) error {
				return s.completeProfile(ctx, userID, in)
			},
		},
		saga.Step{
			Name: stepLicense,
			Do: func(ctx context.Context) error {
				return s.openLicense(ctx, in.email)
			},
		},
	)
	if err != nil {
		return nil, s.sagaError(in, userID, err)
	}

	s.logger.Info("account registered",
		zap.String("user_id", userID),
		observability.Email(in.email),
	)

	return &domain.RegisterResponse{
		OK:                     true,
		NeedsEmailConfirmation: true,
		EmailRedirectTo:        s.cfg.SignupRedirectTo,
	}, nil
}

func (s *RegistrationService) validate(req *domain.RegisterRequest) (*registration, error) {
	in := &registration{
		email:    strings.ToLower(strings.TrimSpace(req.Email)),
		password: req.Password,
		cpf:      taxid.Digits(req.CPF),
	}
	if in.email == "" || in.password == "" || strings.TrimSpace(req.CPF) == "" {
		return nil, domain.NewError(domain.CodeMissingFields, "")
	}
	if !taxid.Valid(in.cpf) {
		return nil, domain.NewError(domain.CodeInvalidDocument, "").With("kind", string(taxid.KindOf(in.cpf)))
	}
	if s.cfg.EnforcePasswordPolicy && !PasswordStrong(in.password) {
		return nil, domain.NewError(domain.CodeWeakPassword, "")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		in.name = &name
	}
	if wa := taxid.Digits(req.WhatsApp); wa != "" {
		in.whatsapp = &wa
	}
	return in, nil
}

func (s *RegistrationService) signUp(ctx context.Context, in *registration) (string, error) {
	meta := domain.SignupMetadata{Name: in.name, CPF: in.cpf, WhatsApp: in.whatsapp}

	acc, err := s.identity.SignUp(ctx, in.email, in.password, meta, s.cfg.SignupRedirectTo)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		return "", ClassifySignupError(err)
	}
	// GoTrue hides existing addresses behind a fake user with no identities.
	if acc.Identities != nil && len(acc.Identities) == 0 {
		return "", domain.NewError(domain.CodeEmailExists, "")
	}
	if acc.ID == "" {
		return "", domain.NewError(domain.CodeSignupMissingUserID, "")
	}
	return acc.ID, nil
}

func (s *RegistrationService) completeProfile(ctx context.Context, userID string, in *registration) error {
	patch := domain.ProfilePatch{Name: in.name, CPF: in.cpf, WhatsApp: in.whatsapp}

	rows, err := s.profiles.UpdateProfile(ctx, userID, patch)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		return domain.NewError(domain.CodeProfileUpdateFailed, upstreamDetail(err))
	}
	if rows == 0 {
		return domain.NewError(domain.CodeProfileUpdateFailed, "no profile row for user "+userID)
	}
	return nil
}

func (s *RegistrationService) openLicense(ctx context.Context, email string) error {
	res, err := s.ledger.UpsertLicense(ctx, domain.License{
		Email:      email,
		Status:     domain.LicenseActive,
		MaxDevices: 1,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.metrics.IncrExternalError("ledger")
		return domain.WrapError(domain.CodeSheetsFailed, err)
	}
	if !res.OK() {
		s.metrics.IncrExternalError("ledger")
		return domain.NewError(domain.CodeSheetsFailed, res.Raw).With("ledger_status", res.Status)
	}
	return nil
}

// sagaError unwraps the failing step's taxonomy error and flags a failed
// compensation, which can leave an Account with no License behind.
func (s *RegistrationService) sagaError(in *registration, userID string, err error) error {
	failure, ok := saga.AsFailure(err)
	if !ok {
		return domain.WrapError(domain.CodeServerError, err)
	}

	var de *domain.Error
	if !errors.As(failure.Err, &de) {
		de = domain.WrapError(domain.CodeServerError, failure.Err)
	}

	if failure.CompensationFailed() {
		s.logger.Error("registration left an orphaned account",
			zap.String("user_id", userID),
			observability.Email(in.email),
			zap.String("failed_step", failure.Step),
			zap.Bool("alert", true),
		)
		de.With("compensation_failed", true)
	}
	return de
}
