package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"bmauth/config"
	"bmauth/internal/domain/entity"
	domainerrors "bmauth/internal/domain/errors"
	"bmauth/internal/domain/repository"
	"bmauth/internal/domain/service"
	mockRepo "bmauth/internal/mocks/repository"
	mockSvc "bmauth/internal/mocks/service"
	"bmauth/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
	identity  *mockSvc.MockIdentityProvider
	forwarder *mockSvc.MockLogForwarder
	metrics   *mockSvc.MockMetricsRecorder
}

func createTestUserService(t *testing.T, distinguishLoginFailures bool) userServiceFixtures {
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	identity := mockSvc.NewMockIdentityProvider(t)
	forwarder := mockSvc.NewMockLogForwarder(t)
	metrics := mockSvc.NewMockMetricsRecorder(t)

	svc := NewUserService(UserServiceParams{
		UserRepo:  userRepo,
		Hasher:    hasher,
		Identity:  identity,
		Forwarder: forwarder,
		Metrics:   metrics,
		Config: &config.Config{
			Auth: &config.AuthConfig{DistinguishLoginFailures: distinguishLoginFailures},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return userServiceFixtures{
		service:   svc,
		userRepo:  userRepo,
		hasher:    hasher,
		identity:  identity,
		forwarder: forwarder,
		metrics:   metrics,
	}
}

func TestUserService_RegisterUser_Success(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()
	input := &usecase.RegisterUserInput{Name: "Ana", Email: "  A@X.com ", Password: "secret1"}

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().
		CreateIdentity(ctx, &service.IdentityInput{Email: "a@x.com", DisplayName: "Ana"}).
		Return("uid-1", nil)
	fx.userRepo.EXPECT().
		Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
			return u.ID == "uid-1" && u.Email == "a@x.com" && u.Name == "Ana" && u.PasswordHash == "$2a$10$hash"
		})).
		Return(nil)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeSuccess).Return()
	fx.forwarder.EXPECT().Forward(ctx, "User registered: uid-1").Return()

	output, err := fx.service.RegisterUser(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "uid-1", output.User.ID)
	assert.Equal(t, "a@x.com", output.User.Email)
	assert.Equal(t, "Ana", output.User.Name)
}

func TestUserService_RegisterUser_EmailAlreadyRegistered(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(&entity.User{ID: "uid-1", Email: "a@x.com"}, nil)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeDuplicate).Return()

	output, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
}

func TestUserService_RegisterUser_WeakPassword(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()
	weak := domainerrors.ErrPasswordStrength.WithDetails("password must be at least 6 characters long")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("abc").Return(weak)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeInvalidInput).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "abc"})

	assert.True(t, errors.Is(err, domainerrors.ErrPasswordStrength))
}

func TestUserService_RegisterUser_HashFailure(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("", context.Canceled)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeError).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
}

func TestUserService_RegisterUser_IdentityEmailExists(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().CreateIdentity(ctx, mock.Anything).Return("", service.ErrIdentityEmailExists)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeDuplicate).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
}

func TestUserService_RegisterUser_IdentityProviderFailure(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()
	cause := errors.New("firebase unavailable")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().CreateIdentity(ctx, mock.Anything).Return("", cause)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeError).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.HTTPCode())
	assert.NotContains(t, appErr.Message(), "firebase")
	assert.True(t, errors.Is(err, cause))
}

func TestUserService_RegisterUser_ConcurrentClaimCompensatesIdentity(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().CreateIdentity(ctx, mock.Anything).Return("uid-2", nil)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).Return(repository.ErrEmailTaken)
	fx.identity.EXPECT().DeleteIdentity(mock.Anything, "uid-2").Return(nil)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeDuplicate).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
}

func TestUserService_RegisterUser_CompensationFailureKeepsOriginalError(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().CreateIdentity(ctx, mock.Anything).Return("uid-2", nil)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).Return(repository.ErrEmailTaken)
	fx.identity.EXPECT().DeleteIdentity(mock.Anything, "uid-2").Return(errors.New("delete failed"))
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeDuplicate).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
}

func TestUserService_RegisterUser_DirectoryWriteFailureKeepsIdentity(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().ValidatePasswordStrength("secret1").Return(nil)
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$10$hash", nil)
	fx.identity.EXPECT().CreateIdentity(ctx, mock.Anything).Return("uid-3", nil)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).Return(errors.New("deadline exceeded"))
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeError).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.ErrorCode())
}

func TestUserService_RegisterUser_LookupFailure(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, errors.New("unavailable"))
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeError).Return()

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Email: "a@x.com", Password: "secret1"})

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.HTTPCode())
}

func TestUserService_CreateUser_Success(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "b@x.com").Return(nil, repository.ErrUserNotFound)
	fx.userRepo.EXPECT().
		Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
			return u.ID == "ext-1" && u.Email == "b@x.com" && u.PasswordHash == ""
		})).
		Return(nil)
	fx.metrics.EXPECT().RecordRegistration(service.OutcomeSuccess).Return()
	fx.forwarder.EXPECT().Forward(ctx, "User provisioned: ext-1").Return()

	output, err := fx.service.CreateUser(ctx, &usecase.CreateUserInput{ID: "ext-1", Email: "B@x.com", Name: "Bea"})

	require.NoError(t, err)
	assert.Equal(t, "ext-1", output.User.ID)
	assert.Equal(t, "Bea", output.User.Name)
}

func TestUserService_CreateUser_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		want    error
	}{
		{name: "email claimed concurrently", repoErr: repository.ErrEmailTaken, want: domainerrors.ErrEmailAlreadyRegistered},
		{name: "id already used", repoErr: repository.ErrUserIDTaken, want: domainerrors.ErrUserIDConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t, false)
			ctx := context.Background()

			fx.userRepo.EXPECT().FindByEmail(ctx, "b@x.com").Return(nil, repository.ErrUserNotFound)
			fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).Return(tt.repoErr)
			fx.metrics.EXPECT().RecordRegistration(service.OutcomeDuplicate).Return()

			_, err := fx.service.CreateUser(ctx, &usecase.CreateUserInput{ID: "ext-1", Email: "b@x.com"})

			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestUserService_Login_Success(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(&entity.User{ID: "uid-1", PasswordHash: "$2a$10$hash"}, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", "$2a$10$hash").Return(true)
	fx.metrics.EXPECT().RecordLogin(service.OutcomeSuccess).Return()
	fx.forwarder.EXPECT().Forward(ctx, "Login succeeded: uid-1").Return()

	output, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "A@X.COM", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, LoginSuccessMessage, output.Message)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(&entity.User{ID: "uid-1", PasswordHash: "$2a$10$hash"}, nil)
	fx.hasher.EXPECT().Check(ctx, "wrong", "$2a$10$hash").Return(false)
	fx.metrics.EXPECT().RecordLogin(service.OutcomeInvalidCredentials).Return()

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "wrong"})

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestUserService_Login_UserWithoutPasswordCannotLogIn(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "b@x.com").Return(&entity.User{ID: "ext-1"}, nil)
	fx.metrics.EXPECT().RecordLogin(service.OutcomeInvalidCredentials).Return()

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "b@x.com", Password: ""})

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	tests := []struct {
		name        string
		distinguish bool
		want        error
	}{
		{name: "unified failure", distinguish: false, want: domainerrors.ErrInvalidCredentials},
		{name: "distinguished failure", distinguish: true, want: domainerrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t, tt.distinguish)
			ctx := context.Background()

			fx.userRepo.EXPECT().FindByEmail(ctx, "ghost@x.com").Return(nil, repository.ErrUserNotFound)
			fx.metrics.EXPECT().RecordLogin(service.OutcomeUnknownUser).Return()

			_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "ghost@x.com", Password: "secret1"})

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			var appErr domainerrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 401, appErr.HTTPCode())
		})
	}
}

func TestUserService_Login_DirectoryFailure(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, errors.New("unavailable"))
	fx.metrics.EXPECT().RecordLogin(service.OutcomeError).Return()

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.HTTPCode())
}

func TestUserService_ListUsers(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().List(ctx).Return([]*entity.User{
		{ID: "uid-1", Email: "a@x.com", Name: "Ana", PasswordHash: "$2a$10$hash"},
		{ID: "ext-1", Email: "b@x.com", Name: "Bea"},
	}, nil)
	fx.forwarder.EXPECT().Forward(ctx, "Users listing requested").Return()

	output, err := fx.service.ListUsers(ctx)

	require.NoError(t, err)
	require.Len(t, output.Users, 2)
	assert.Equal(t, "uid-1", output.Users[0].ID)
	assert.Equal(t, "a@x.com", output.Users[0].Data.Email)
	assert.Equal(t, "ext-1", output.Users[1].Data.ID)
}

func TestUserService_ListUsers_Empty(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().List(ctx).Return([]*entity.User{}, nil)

	_, err := fx.service.ListUsers(ctx)

	assert.True(t, errors.Is(err, domainerrors.ErrNoUsersFound))
}

func TestUserService_ListUsers_DirectoryFailure(t *testing.T) {
	fx := createTestUserService(t, false)
	ctx := context.Background()

	fx.userRepo.EXPECT().List(ctx).Return(nil, errors.New("unavailable"))

	_, err := fx.service.ListUsers(ctx)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.ErrorCode())
}
