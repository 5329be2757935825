package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, translate(err, "category")
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err, "category")
	}
	return &category, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?)", category.Name).Count(&count).Error; err != nil {
		return translate(err, "category")
	}
	if count > 0 {
		return apperr.Conflict("category %q already exists", category.Name)
	}
	return translate(r.db.WithContext(ctx).Create(category).Error, "category")
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).
		Updates(map[string]interface{}{"name": category.Name, "icon": category.Icon})
	if res.Error != nil {
		return translate(res.Error, "category")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("category not found")
	}
	return nil
}

func (r *CatalogRepository) ListBrands(ctx context.Context, categoryID uint) ([]models.Brand, error) {
	var brands []models.Brand
	q := r.db.WithContext(ctx).Order("name ASC")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	err := q.Find(&brands).Error
	return brands, translate(err, "brand")
}

func (r *CatalogRepository) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, translate(err, "brand")
	}
	return &brand, nil
}

// FindOrCreateBrand returns the brand with this name in the category,
// creating it when missing. Names compare case-insensitively.
func (r *CatalogRepository) FindOrCreateBrand(ctx context.Context, categoryID uint, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	var brand models.Brand
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND LOWER(name) = LOWER(?)", categoryID, name).
		First(&brand).Error
	if err == nil {
		return &brand, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, "brand")
	}

	brand = models.Brand{CategoryID: categoryID, Name: name}
	if err := r.db.WithContext(ctx).Create(&brand).Error; err != nil {
		return nil, translate(err, "brand")
	}
	return &brand, nil
}

func (r *CatalogRepository) UpdateBrand(ctx context.Context, brand *models.Brand) error {
	res := r.db.WithContext(ctx).Model(&models.Brand{}).Where("id = ?", brand.ID).Update("name", brand.Name)
	if res.Error != nil {
		return translate(res.Error, "brand")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("brand not found")
	}
	return nil
}

func (r *CatalogRepository) ListDevices(ctx context.Context, categoryID, brandID uint) ([]models.Device, error) {
	var devices []models.Device
	q := r.db.WithContext(ctx).Preload("Category").Preload("Brand").Order("model ASC")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if brandID != 0 {
		q = q.Where("brand_id = ?", brandID)
	}
	err := q.Find(&devices).Error
	return devices, translate(err, "device")
}

func (r *CatalogRepository) GetDevice(ctx context.Context, id uint) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).Preload("Category").Preload("Brand").First(&device, id).Error; err != nil {
		return nil, translate(err, "device")
	}
	return &device, nil
}

// FindDevice resolves a device by its identifying triple.
func (r *CatalogRepository) FindDevice(ctx context.Context, categoryID, brandID uint, model string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Preload("Category").Preload("Brand").
		Where("category_id = ? AND brand_id = ? AND model = ?", categoryID, brandID, model).
		First(&device).Error
	if err != nil {
		return nil, translate(err, "device")
	}
	return &device, nil
}

func (r *CatalogRepository) deviceExists(ctx context.Context, d *models.Device) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("category_id = ? AND brand_id = ? AND model = ? AND id <> ?", d.CategoryID, d.BrandID, d.Model, d.ID).
		Count(&count).Error
	return count > 0, err
}

// CreateDevice inserts a device; a duplicate triple is a conflict.
func (r *CatalogRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	exists, err := r.deviceExists(ctx, device)
	if err != nil {
		return translate(err, "device")
	}
	if exists {
		return apperr.Conflict("device %q already exists for this brand and category", device.Model)
	}
	return translate(r.db.WithContext(ctx).Omit("Category", "Brand").Create(device).Error, "device")
}

func (r *CatalogRepository) UpdateDevice(ctx context.Context, device *models.Device) error {
	exists, err := r.deviceExists(ctx, device)
	if err != nil {
		return translate(err, "device")
	}
	if exists {
		return apperr.Conflict("device %q already exists for this brand and category", device.Model)
	}
	res := r.db.WithContext(ctx).Model(&models.Device{}).Where("id = ?", device.ID).
		Updates(map[string]interface{}{
			"category_id": device.CategoryID,
			"brand_id":    device.BrandID,
			"model":       device.Model,
		})
	if res.Error != nil {
		return translate(res.Error, "device")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("device not found")
	}
	return nil
}

func (r *CatalogRepository) ListFaults(ctx context.Context, deviceID uint, activeOnly bool) ([]models.Fault, error) {
	var faults []models.Fault
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&faults).Error
	return faults, translate(err, "fault")
}

func (r *CatalogRepository) GetFault(ctx context.Context, id uint) (*models.Fault, error) {
	var fault models.Fault
	if err := r.db.WithContext(ctx).First(&fault, id).Error; err != nil {
		return nil, translate(err, "fault")
	}
	return &fault, nil
}

// GetFaults loads faults by id regardless of their active flag.
func (r *CatalogRepository) GetFaults(ctx context.Context, ids []uint) ([]models.Fault, error) {
	var faults []models.Fault
	if len(ids) == 0 {
		return faults, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&faults).Error
	return faults, translate(err, "fault")
}

func (r *CatalogRepository) CreateFault(ctx context.Context, fault *models.Fault) error {
	return translate(r.db.WithContext(ctx).Create(fault).Error, "fault")
}

func (r *CatalogRepository) UpdateFault(ctx context.Context, fault *models.Fault) error {
	res := r.db.WithContext(ctx).Model(&models.Fault{}).Where("id = ?", fault.ID).
		Updates(map[string]interface{}{
			"name":        fault.Name,
			"description": fault.Description,
			"price":       fault.Price,
		})
	if res.Error != nil {
		return translate(res.Error, "fault")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("fault not found")
	}
	return nil
}

// SetFaultActive flips the soft-delete flag.
func (r *CatalogRepository) SetFaultActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Fault{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error, "fault")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("fault not found")
	}
	return nil
}

func (r *CatalogRepository) ListDurationTiers(ctx context.Context, activeOnly bool) ([]models.DurationTier, error) {
	var tiers []models.DurationTier
	q := r.db.WithContext(ctx).Order("sort_order ASC, id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&tiers).Error
	return tiers, translate(err, "duration tier")
}

func (r *CatalogRepository) GetDurationTier(ctx context.Context, name string) (*models.DurationTier, error) {
	var tier models.DurationTier
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tier).Error; err != nil {
		return nil, translate(err, "duration tier")
	}
	return &tier, nil
}

func (r *CatalogRepository) SaveDurationTier(ctx context.Context, tier *models.DurationTier) error {
	if tier.ID == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.DurationTier{}).Where("name = ?", tier.Name).Count(&count).Error; err != nil {
			return translate(err, "duration tier")
		}
		if count > 0 {
			return apperr.Conflict("duration tier %q already exists", tier.Name)
		}
		return translate(r.db.WithContext(ctx).Create(tier).Error, "duration tier")
	}
	return translate(r.db.WithContext(ctx).Save(tier).Error, "duration tier")
}
