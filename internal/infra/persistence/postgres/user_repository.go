package postgres

import (
	"context"
	"time"

	"bmauth/internal/domain/entity"
	"bmauth/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userModel is the users table. The unique email index is what makes registration atomic.
type userModel struct {
	ID           string    `gorm:"type:varchar(128);primaryKey"`
	Email        string    `gorm:"type:varchar(320);not null;uniqueIndex:idx_users_email"`
	Name         string    `gorm:"type:varchar(255);not null;default:''"`
	PasswordHash string    `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a PostgreSQL-backed directory.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	model := fromUserDomain(user)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return classifyCreateError(err)
	}

	return nil
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var model userModel
	err := repo.db.WithContext(ctx).Where("email = ?", email).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&model), nil
}

func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	var models []userModel
	if err := repo.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(models))
	for i := range models {
		users = append(users, toUserDomain(&models[i]))
	}

	return users, nil
}

func fromUserDomain(user *entity.User) *userModel {
	return &userModel{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func toUserDomain(model *userModel) *entity.User {
	return &entity.User{
		ID:           model.ID,
		Email:        model.Email,
		Name:         model.Name,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}
}
