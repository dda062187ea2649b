package repository

import (
	"context"
	"errors"

	"recipebox/internal/models"
	"recipebox/internal/observability"

	"gorm.io/gorm"
)

const maxUserPage = 100

// UserRepository stores accounts. Emails are expected to be normalized by the caller.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// findBy loads the single row of T whose column equals value.
// The gorm not-found error is returned unwrapped so callers can choose its meaning.
func findBy[T any](ctx context.Context, db *gorm.DB, column string, value any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(column+" = ?", value).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()

	user, err := findBy[models.User](ctx, r.db, "id", id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, models.NewNotFoundError("User", id)
	case err != nil:
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// GetByEmail returns nil, nil when no account uses email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("get_by_email", "users")()

	user, err := findBy[models.User](ctx, r.db, "email", email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Create inserts user. A second account for the same email is a conflict.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()

	err := r.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return models.NewConflictError("User already exists")
	default:
		return models.NewInternalError(err)
	}
}

// List pages through accounts oldest first, at most maxUserPage at a time.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	defer observability.TrackQuery("list", "users")()

	limit = min(max(limit, 1), maxUserPage)
	offset = max(offset, 0)

	users := []models.User{}
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
