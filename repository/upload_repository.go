package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"repairhub-server/models"
)

type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Record(ctx context.Context, upload *models.Upload) error {
	return translate(r.db.WithContext(ctx).Create(upload).Error, "upload")
}

// Claim marks the uploads behind urls as referenced by a saved record.
func (r *UploadRepository) Claim(ctx context.Context, urls []string, at time.Time) error {
	if len(urls) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("url IN ? AND claimed_at IS NULL", urls).
		Update("claimed_at", at).Error
	return translate(err, "upload")
}

// ListOrphans returns unclaimed uploads created before cutoff, oldest first.
func (r *UploadRepository) ListOrphans(ctx context.Context, cutoff time.Time, limit int) ([]models.Upload, error) {
	var uploads []models.Upload
	err := r.db.WithContext(ctx).
		Where("claimed_at IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").Limit(limit).
		Find(&uploads).Error
	return uploads, translate(err, "upload")
}

func (r *UploadRepository) Delete(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Delete(&models.Upload{}, id).Error, "upload")
}

type PushTokenRepository struct {
	db *gorm.DB
}

func NewPushTokenRepository(db *gorm.DB) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

// Upsert registers token for the user, moving it over if another user held it.
func (r *PushTokenRepository) Upsert(ctx context.Context, token *models.PushToken) error {
	token.Active = true
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "device_id", "active", "updated_at"}),
	}).Create(token).Error
	return translate(err, "push token")
}

func (r *PushTokenRepository) ActiveTokens(ctx context.Context, userID uint) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.PushToken{}).
		Where("user_id = ? AND active = ?", userID, true).
		Pluck("token", &tokens).Error
	return tokens, translate(err, "push token")
}

func (r *PushTokenRepository) Deactivate(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).Model(&models.PushToken{}).
		Where("token = ?", token).Update("active", false).Error
	return translate(err, "push token")
}
