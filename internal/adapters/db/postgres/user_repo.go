package postgres

import (
	"context"
	"errors"

	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, wrapStoreErr(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, wrapStoreErr(err, "GetUserByEmail")
	}
	return u, nil
}

func (p *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, wrapStoreErr(err, "GetUserByID")
	}
	return u, nil
}

func (p *UserRepo) UpdateUser(ctx context.Context, user model.User) error {
	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		return wrapStoreErr(err, "UpdateUser")
	}
	return nil
}

func (p *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	res := p.db.WithContext(ctx).Order("created_at").Find(&users)
	if err := res.Error; err != nil {
		return nil, wrapStoreErr(err, "ListUsers")
	}
	return users, nil
}

func (p *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	return p.setColumn(ctx, id, "role", role, "SetRole")
}

func (p *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return p.setColumn(ctx, id, "active", active, "SetActive")
}

func (p *UserRepo) setColumn(ctx context.Context, id uuid.UUID, column string, value interface{}, op string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if err := res.Error; err != nil {
		return wrapStoreErr(err, op)
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

// wrapStoreErr keeps the closed error set intact: a deadline hit on the
// pool becomes the unavailable error (503 at the edge), anything else is
// internal.
func wrapStoreErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return customErrors.WrapUnavailable(err, op)
	}
	return customErrors.WrapInternal(err, op)
}
