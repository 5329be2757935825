package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).Count(&count).Error
	return count > 0, translate(err, "user")
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	taken, err := r.EmailTaken(ctx, user.Email)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("an account with email %s already exists", user.Email)
	}
	return translate(r.db.WithContext(ctx).Create(user).Error, "user")
}

func (r *UserRepository) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).First(&user).Error
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Delete(&models.User{}, id).Error, "user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":           hash,
			"must_change_password":    false,
			"temp_credential_used_at": nil,
		})
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// ConsumeTempCredential records the single permitted login with a temporary
// credential. A second call fails with a conflict.
func (r *UserRepository) ConsumeTempCredential(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND must_change_password = ? AND temp_credential_used_at IS NULL", id, true).
		Update("temp_credential_used_at", at)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("temporary credential has already been used")
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, translate(err, "user")
}
