package postgres

import (
	"strings"

	"bmauth/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// uniqueViolationCode is PostgreSQL's unique_violation SQLSTATE.
const uniqueViolationCode = "23505"

// classifyCreateError maps unique violations on insert to repository sentinels.
func classifyCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return repository.ErrEmailTaken
		}

		return repository.ErrUserIDTaken
	}

	// With TranslateError enabled GORM hides the driver error and the constraint name.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrEmailTaken
	}

	return errors.Wrap(err, "failed to create user")
}
