// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"bmauth/config"
	deliverycontext "bmauth/internal/delivery/context"
	"bmauth/internal/domain/entity"
	domainerrors "bmauth/internal/domain/errors"
	"bmauth/internal/domain/repository"
	"bmauth/internal/domain/service"
	"bmauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// LoginSuccessMessage is returned on every successful login.
const LoginSuccessMessage = "Login successful"

const compensationTimeout = 5 * time.Second

// userService implements the UserUsecase interface.
type userService struct {
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	identity  service.IdentityProvider
	forwarder service.LogForwarder
	metrics   service.MetricsRecorder

	distinguishLoginFailures bool
	logger                   *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Identity  service.IdentityProvider
	Forwarder service.LogForwarder
	Metrics   service.MetricsRecorder
	Config    *config.Config
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	distinguish := false
	if params.Config != nil && params.Config.Auth != nil {
		distinguish = params.Config.Auth.DistinguishLoginFailures
	}

	return &userService{
		userRepo:                 params.UserRepo,
		hasher:                   params.Hasher,
		identity:                 params.Identity,
		forwarder:                params.Forwarder,
		metrics:                  params.Metrics,
		distinguishLoginFailures: distinguish,
		logger:                   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser hashes the password, issues an identity and stores the user.
// The directory write is the authoritative uniqueness check; the lookup before it only
// avoids hashing and identity creation for emails that are obviously taken.
func (srv *userService) RegisterUser(ctx context.Context, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if err := srv.ensureEmailAvailable(ctx, email); err != nil {
		srv.metrics.RecordRegistration(registrationOutcome(err))

		return nil, err
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", email), slog.Any("error", err))
		srv.metrics.RecordRegistration(service.OutcomeInvalidInput)

		return nil, err
	}

	hash, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.metrics.RecordRegistration(registrationOutcome(err))

		return nil, srv.hashFailure(ctx, err)
	}

	uid, err := srv.identity.CreateIdentity(ctx, &service.IdentityInput{Email: email, DisplayName: input.Name})
	if errors.Is(err, service.ErrIdentityEmailExists) {
		srv.log(ctx).Warn("Identity provider already holds email", slog.String("email", email))
		srv.metrics.RecordRegistration(service.OutcomeDuplicate)

		return nil, domainerrors.ErrEmailAlreadyRegistered
	}
	if err != nil {
		srv.metrics.RecordRegistration(service.OutcomeError)

		return nil, srv.directoryFailure(ctx, err, "create identity")
	}

	user := &entity.User{
		ID:           uid,
		Email:        email,
		Name:         input.Name,
		PasswordHash: hash,
	}

	if err := srv.userRepo.Create(ctx, user); err != nil {
		appErr := srv.createFailure(ctx, err)
		if errors.Is(err, repository.ErrEmailTaken) || errors.Is(err, repository.ErrUserIDTaken) {
			srv.compensateIdentity(ctx, uid)
		}
		srv.metrics.RecordRegistration(registrationOutcome(appErr))

		return nil, appErr
	}

	srv.metrics.RecordRegistration(service.OutcomeSuccess)
	srv.forwarder.Forward(ctx, "User registered: "+user.ID)
	srv.log(ctx).Debug("Registration completed", slog.String("userID", user.ID))

	return &usecase.RegisterOutput{User: user.Public()}, nil
}

// CreateUser stores a user record without credentials. Such users cannot log in with a password.
func (srv *userService) CreateUser(ctx context.Context, input *usecase.CreateUserInput) (*usecase.RegisterOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	srv.log(ctx).Info("Provisioning user", slog.String("userID", input.ID), slog.String("email", email))

	if err := srv.ensureEmailAvailable(ctx, email); err != nil {
		srv.metrics.RecordRegistration(registrationOutcome(err))

		return nil, err
	}

	user := &entity.User{
		ID:    input.ID,
		Email: email,
		Name:  input.Name,
	}

	if err := srv.userRepo.Create(ctx, user); err != nil {
		appErr := srv.createFailure(ctx, err)
		srv.metrics.RecordRegistration(registrationOutcome(appErr))

		return nil, appErr
	}

	srv.metrics.RecordRegistration(service.OutcomeSuccess)
	srv.forwarder.Forward(ctx, "User provisioned: "+user.ID)

	return &usecase.RegisterOutput{User: user.Public()}, nil
}

// Login verifies the password against the stored hash.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := entity.NormalizeEmail(input.Email)

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		srv.log(ctx).Info("Login attempt for unknown email", slog.String("email", email))
		srv.metrics.RecordLogin(service.OutcomeUnknownUser)

		if srv.distinguishLoginFailures {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		srv.metrics.RecordLogin(service.OutcomeError)

		return nil, srv.directoryFailure(ctx, err, "find user by email")
	}

	if !user.HasPassword() || !srv.hasher.Check(ctx, input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login attempt with invalid credentials", slog.String("userID", user.ID))
		srv.metrics.RecordLogin(service.OutcomeInvalidCredentials)

		return nil, domainerrors.ErrInvalidCredentials
	}

	srv.metrics.RecordLogin(service.OutcomeSuccess)
	srv.forwarder.Forward(ctx, "Login succeeded: "+user.ID)

	return &usecase.LoginOutput{Message: LoginSuccessMessage}, nil
}

// ListUsers returns every stored user in its public form.
func (srv *userService) ListUsers(ctx context.Context) (*usecase.ListUsersOutput, error) {
	users, err := srv.userRepo.List(ctx)
	if err != nil {
		return nil, srv.directoryFailure(ctx, err, "list users")
	}

	if len(users) == 0 {
		return nil, domainerrors.ErrNoUsersFound
	}

	items := make([]*usecase.UserListItem, 0, len(users))
	for _, user := range users {
		items = append(items, &usecase.UserListItem{ID: user.ID, Data: user.Public()})
	}

	srv.forwarder.Forward(ctx, "Users listing requested")

	return &usecase.ListUsersOutput{Users: items}, nil
}

func (srv *userService) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := srv.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		srv.log(ctx).Warn("Email already registered", slog.String("email", email))

		return domainerrors.ErrEmailAlreadyRegistered
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return srv.directoryFailure(ctx, err, "find user by email")
	}
}

// createFailure translates a failed directory write into an AppError.
func (srv *userService) createFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		srv.log(ctx).Warn("Email claimed by a concurrent registration")

		return domainerrors.ErrEmailAlreadyRegistered
	case errors.Is(err, repository.ErrUserIDTaken):
		return domainerrors.ErrUserIDConflict
	default:
		return srv.directoryFailure(ctx, err, "create user")
	}
}

// compensateIdentity removes an identity whose directory record could not be written.
// Failures are logged only; the caller already reports the original error.
func (srv *userService) compensateIdentity(ctx context.Context, uid string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := srv.identity.DeleteIdentity(ctx, uid); err != nil {
		srv.log(ctx).Error("Failed to delete orphaned identity", slog.String("userID", uid), slog.Any("error", err))
	}
}

func (srv *userService) hashFailure(ctx context.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

	return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
}

func (srv *userService) directoryFailure(ctx context.Context, err error, details string) error {
	srv.log(ctx).Error("Directory operation failed", slog.String("operation", details), slog.Any("error", err))

	return domainerrors.NewDirectoryError(err, details)
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrEmailAlreadyRegistered), errors.Is(err, domainerrors.ErrUserIDConflict):
		return service.OutcomeDuplicate
	case errors.Is(err, domainerrors.ErrPasswordRequired), errors.Is(err, domainerrors.ErrPasswordStrength):
		return service.OutcomeInvalidInput
	default:
		return service.OutcomeError
	}
}
