// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"bmauth/config"
	domainerrors "bmauth/internal/domain/errors"
	"bmauth/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcrypt ignores input past this many bytes, so longer passwords are rejected outright.
const maxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	slots  *semaphore.Weighted
	policy config.PasswordStrengthConfig
}

// BcryptHasherParams holds dependencies for the hasher, injected by Fx.
type BcryptHasherParams struct {
	fx.In

	Config *config.Config
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(params BcryptHasherParams) (service.PasswordHasher, error) {
	var policy config.PasswordStrengthConfig
	if params.Config.PasswordStrength != nil {
		policy = *params.Config.PasswordStrength
	}

	return NewBcryptHasherWithCost(params.Config.Auth.BcryptCost, params.Config.Auth.MaxConcurrentHashes, policy)
}

// NewBcryptHasherWithCost builds a hasher with an explicit cost factor and concurrency bound.
// maxConcurrent <= 0 means one slot per available CPU.
func NewBcryptHasherWithCost(cost, maxConcurrent int, policy config.PasswordStrengthConfig) (service.PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}

	return &bcryptHasher{
		cost:   cost,
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
		policy: policy,
	}, nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt generates a fresh salt per call and embeds it, with the cost, in the output.
func (h *bcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", domainerrors.ErrPasswordRequired
	}
	if len(password) > maxPasswordBytes {
		return "", domainerrors.ErrPasswordStrength.WithDetails("password must be at most 72 bytes long")
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "failed to acquire hashing slot")
	}
	defer h.slots.Release(1)

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate bcrypt hash")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash in constant time.
// Malformed hashes simply fail the comparison, as does a ctx that ends while waiting for a slot.
func (h *bcryptHasher) Check(ctx context.Context, password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength checks the password against the configured policy.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	var problems []string

	minLength := h.policy.MinLength
	if minLength < 1 {
		minLength = 1
	}
	if utf8.RuneCountInString(password) < minLength {
		problems = append(problems, "must be at least "+strconv.Itoa(minLength)+" characters long")
	}

	maxLength := h.policy.MaxLength
	if maxLength <= 0 || maxLength > maxPasswordBytes {
		maxLength = maxPasswordBytes
	}
	if len(password) > maxLength {
		problems = append(problems, "must be at most "+strconv.Itoa(maxLength)+" bytes long")
	}

	if h.policy.RequireLowercase && !h.hasLowercase(password) {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if h.policy.RequireUppercase && !h.hasUppercase(password) {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if h.policy.RequireNumbers && !h.hasNumbers(password) {
		problems = append(problems, "must contain at least one number")
	}
	if h.policy.RequireSpecial && !h.hasSpecialChars(password) {
		problems = append(problems, "must contain at least one special character")
	}

	if len(problems) > 0 {
		return domainerrors.ErrPasswordStrength.WithDetails("password " + strings.Join(problems, ", "))
	}

	return nil
}

func (h *bcryptHasher) hasUppercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}

func (h *bcryptHasher) hasLowercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}

func (h *bcryptHasher) hasNumbers(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func (h *bcryptHasher) hasSpecialChars(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}
