package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type AgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(agent).Error, "agent")
}

func (r *AgentRepository) Delete(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Delete(&models.Agent{}, id).Error, "agent")
}

func (r *AgentRepository) Get(ctx context.Context, id uint) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Preload("User").First(&agent, id).Error; err != nil {
		return nil, translate(err, "agent")
	}
	return &agent, nil
}

func (r *AgentRepository) GetByUserID(ctx context.Context, userID uint) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&agent).Error; err != nil {
		return nil, translate(err, "agent")
	}
	return &agent, nil
}

// ListAvailable returns active, online agents serving the city.
func (r *AgentRepository) ListAvailable(ctx context.Context, cityID uint) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.WithContext(ctx).
		Where("city_id = ? AND is_active = ? AND is_online = ?", cityID, true, true).
		Order("rating_average DESC").
		Find(&agents).Error
	return agents, translate(err, "agent")
}

func (r *AgentRepository) List(ctx context.Context, cityID uint, page models.Page) ([]models.Agent, int64, error) {
	var (
		agents []models.Agent
		total  int64
	)
	q := r.db.WithContext(ctx).Model(&models.Agent{})
	if cityID != 0 {
		q = q.Where("city_id = ?", cityID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "agent")
	}
	err := paginate(q, page).Preload("User").Order("created_at DESC").Find(&agents).Error
	return agents, total, translate(err, "agent")
}

func (r *AgentRepository) update(ctx context.Context, id uint, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Agent{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translate(res.Error, "agent")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("agent not found")
	}
	return nil
}

func (r *AgentRepository) SetOnline(ctx context.Context, id uint, online bool, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"is_online": online, "last_seen": at})
}

func (r *AgentRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_seen": at})
}

func (r *AgentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	values := map[string]interface{}{"is_active": active}
	if !active {
		values["is_online"] = false
	}
	return r.update(ctx, id, values)
}

// UpdateProfile changes the shop details an agent may edit themselves.
func (r *AgentRepository) UpdateProfile(ctx context.Context, agent *models.Agent) error {
	return r.update(ctx, agent.ID, map[string]interface{}{
		"shop_name":       agent.ShopName,
		"shop_street":     agent.ShopStreet,
		"shop_pincode":    agent.ShopPincode,
		"latitude":        agent.Latitude,
		"longitude":       agent.Longitude,
		"specializations": gorm.Expr("?", encodeStrings(agent.Specializations)),
	})
}

// RecordPayout moves amount from pending to paid earnings. It fails with a
// conflict when pending earnings are lower than amount.
func (r *AgentRepository) RecordPayout(ctx context.Context, id uint, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ? AND earnings_pending >= ?", id, amount).
		Updates(map[string]interface{}{
			"earnings_paid":    gorm.Expr("earnings_paid + ?", amount),
			"earnings_pending": gorm.Expr("earnings_pending - ?", amount),
		})
	if res.Error != nil {
		return translate(res.Error, "agent")
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("payout exceeds pending earnings")
	}
	return nil
}

// MarkStaleOffline sets agents offline whose last heartbeat is before cutoff.
func (r *AgentRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("is_online = ? AND (last_seen IS NULL OR last_seen < ?)", true, cutoff).
		Update("is_online", false)
	return res.RowsAffected, translate(res.Error, "agent")
}

func (r *AgentRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Agent{}).Where("is_active = ?", true).Count(&count).Error
	return count, translate(err, "agent")
}
