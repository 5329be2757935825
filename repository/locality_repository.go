package repository

import (
	"context"

	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type LocalityRepository struct {
	db *gorm.DB
}

func NewLocalityRepository(db *gorm.DB) *LocalityRepository {
	return &LocalityRepository{db: db}
}

func (r *LocalityRepository) ListStates(ctx context.Context) ([]models.State, error) {
	var states []models.State
	err := r.db.WithContext(ctx).Order("name ASC").Find(&states).Error
	return states, translate(err, "state")
}

func (r *LocalityRepository) GetState(ctx context.Context, id uint) (*models.State, error) {
	var state models.State
	if err := r.db.WithContext(ctx).First(&state, id).Error; err != nil {
		return nil, translate(err, "state")
	}
	return &state, nil
}

func (r *LocalityRepository) CreateState(ctx context.Context, state *models.State) error {
	return translate(r.db.WithContext(ctx).Create(state).Error, "state")
}

func (r *LocalityRepository) ListCities(ctx context.Context, stateID uint, activeOnly bool) ([]models.City, error) {
	var cities []models.City
	q := r.db.WithContext(ctx).Preload("State").Order("name ASC")
	if stateID != 0 {
		q = q.Where("state_id = ?", stateID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&cities).Error
	return cities, translate(err, "city")
}

func (r *LocalityRepository) GetCity(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).Preload("State").First(&city, id).Error; err != nil {
		return nil, translate(err, "city")
	}
	return &city, nil
}

// ActiveNameTaken reports whether another active city already uses name.
func (r *LocalityRepository) ActiveNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.City{}).
		Where("LOWER(name) = LOWER(?) AND is_active = ? AND id <> ?", name, true, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "city")
	}
	return count > 0, nil
}

func (r *LocalityRepository) CreateCity(ctx context.Context, city *models.City) error {
	return translate(r.db.WithContext(ctx).Omit("State").Create(city).Error, "city")
}

func (r *LocalityRepository) UpdateCity(ctx context.Context, city *models.City) error {
	res := r.db.WithContext(ctx).Model(&models.City{}).Where("id = ?", city.ID).
		Updates(map[string]interface{}{
			"name":      city.Name,
			"state_id":  city.StateID,
			"pincodes":  gorm.Expr("?", encodeStrings(city.Pincodes)),
			"latitude":  city.Latitude,
			"longitude": city.Longitude,
			"is_active": city.IsActive,
		})
	if res.Error != nil {
		return translate(res.Error, "city")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("city not found")
	}
	return nil
}

func (r *LocalityRepository) SetCityActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.City{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error, "city")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("city not found")
	}
	return nil
}

// DeleteCity removes the row permanently.
func (r *LocalityRepository) DeleteCity(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.City{}, id)
	if res.Error != nil {
		return translate(res.Error, "city")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("city not found")
	}
	return nil
}
