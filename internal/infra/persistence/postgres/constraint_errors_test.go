package postgres

import (
	"testing"

	"bmauth/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyCreateError(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email unique violation",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "idx_users_email"},
			want: repository.ErrEmailTaken,
		},
		{
			name: "primary key violation",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_pkey"},
			want: repository.ErrUserIDTaken,
		},
		{
			name: "wrapped violation",
			err:  errors.Wrap(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "idx_users_email"}, "insert"),
			want: repository.ErrEmailTaken,
		},
		{
			name: "translated duplicate key",
			err:  gorm.ErrDuplicatedKey,
			want: repository.ErrEmailTaken,
		},
		{
			name: "other database error",
			err:  dbErr,
			want: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(classifyCreateError(tt.err), tt.want))
		})
	}
}

func TestClassifyCreateError_NonUniqueCodeIsNotASentinel(t *testing.T) {
	err := classifyCreateError(&pgconn.PgError{Code: "23503", ConstraintName: "idx_users_email"})

	assert.False(t, errors.Is(err, repository.ErrEmailTaken))
	assert.False(t, errors.Is(err, repository.ErrUserIDTaken))
}

func TestUserModelMapping(t *testing.T) {
	user := toUserDomain(&userModel{ID: "u1", Email: "a@x.com", Name: "A", PasswordHash: "$2a$10$x"})
	back := fromUserDomain(user)

	assert.Equal(t, "users", userModel{}.TableName())
	assert.Equal(t, "u1", back.ID)
	assert.Equal(t, "a@x.com", back.Email)
	assert.Equal(t, "$2a$10$x", back.PasswordHash)
}
