package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *models.AgentApplication) error {
	return translate(r.db.WithContext(ctx).Create(app).Error, "application")
}

func (r *ApplicationRepository) Get(ctx context.Context, id uint) (*models.AgentApplication, error) {
	var app models.AgentApplication
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, translate(err, "application")
	}
	return &app, nil
}

func (r *ApplicationRepository) HasPendingForEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AgentApplication{}).
		Where("LOWER(email) = LOWER(?) AND status = ?", email, models.ApplicationPending).
		Count(&count).Error
	return count > 0, translate(err, "application")
}

func (r *ApplicationRepository) List(ctx context.Context, status models.ApplicationStatus, page models.Page) ([]models.AgentApplication, int64, error) {
	var (
		apps  []models.AgentApplication
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.AgentApplication{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "application")
	}
	err := paginate(q, page).Order("created_at DESC").Find(&apps).Error
	return apps, total, translate(err, "application")
}

// resolve moves a pending application to a terminal status. Only one caller
// can win; later attempts see zero affected rows and get a conflict.
func (r *ApplicationRepository) resolve(ctx context.Context, id uint, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.AgentApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationPending).
		Updates(values)
	if res.Error != nil {
		return translate(res.Error, "application")
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("application has already been reviewed")
	}
	return nil
}

func (r *ApplicationRepository) MarkApproved(ctx context.Context, id, reviewerID, agentID uint, at time.Time) error {
	return r.resolve(ctx, id, map[string]interface{}{
		"status":      models.ApplicationApproved,
		"reviewed_by": reviewerID,
		"reviewed_at": at,
		"agent_id":    agentID,
	})
}

func (r *ApplicationRepository) MarkRejected(ctx context.Context, id, reviewerID uint, reason string, at time.Time) error {
	return r.resolve(ctx, id, map[string]interface{}{
		"status":           models.ApplicationRejected,
		"reviewed_by":      reviewerID,
		"reviewed_at":      at,
		"rejection_reason": reason,
	})
}

func (r *ApplicationRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AgentApplication{}).
		Where("status = ?", models.ApplicationPending).Count(&count).Error
	return count, translate(err, "application")
}
