package services

import (
	"context"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

// CatalogService maintains categories, brands, devices, faults and duration
// tiers.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, icon string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}
	category := &models.Category{Name: name, Icon: strings.TrimSpace(icon)}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, name, icon string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}
	category := &models.Category{ID: id, Name: name, Icon: strings.TrimSpace(icon)}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return s.store.GetCategory(ctx, id)
}

func (s *CatalogService) Brands(ctx context.Context, categoryID uint) ([]models.Brand, error) {
	return s.store.ListBrands(ctx, categoryID)
}

// AddBrand returns the existing brand of that name or creates it.
func (s *CatalogService) AddBrand(ctx context.Context, categoryID uint, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("brand name is required")
	}
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.FindOrCreateBrand(ctx, categoryID, name)
}

func (s *CatalogService) RenameBrand(ctx context.Context, id uint, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("brand name is required")
	}
	if err := s.store.UpdateBrand(ctx, &models.Brand{ID: id, Name: name}); err != nil {
		return nil, err
	}
	return s.store.GetBrand(ctx, id)
}

// DeviceInput registers a device. BrandName is used when BrandID is zero and
// creates the brand on the fly.
type DeviceInput struct {
	CategoryID uint   `json:"category_id"`
	BrandID    uint   `json:"brand_id"`
	BrandName  string `json:"brand_name"`
	Model      string `json:"model"`
}

func (s *CatalogService) resolveDeviceInput(ctx context.Context, in DeviceInput) (*models.Device, error) {
	model := strings.TrimSpace(in.Model)
	if in.CategoryID == 0 {
		return nil, apperr.Validation("category is required")
	}
	if model == "" {
		return nil, apperr.Validation("model is required")
	}
	if in.BrandID == 0 && strings.TrimSpace(in.BrandName) == "" {
		return nil, apperr.Validation("brand is required")
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var brand *models.Brand
	var err error
	if in.BrandID != 0 {
		brand, err = s.store.GetBrand(ctx, in.BrandID)
		if err != nil {
			return nil, err
		}
		if brand.CategoryID != in.CategoryID {
			return nil, apperr.Validation("brand does not belong to the selected category")
		}
	} else {
		brand, err = s.store.FindOrCreateBrand(ctx, in.CategoryID, in.BrandName)
		if err != nil {
			return nil, err
		}
	}
	return &models.Device{CategoryID: in.CategoryID, BrandID: brand.ID, Model: model}, nil
}

// CreateDevice registers a device; the (category, brand, model) triple must
// be new.
func (s *CatalogService) CreateDevice(ctx context.Context, in DeviceInput) (*models.Device, error) {
	device, err := s.resolveDeviceInput(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateDevice(ctx, device); err != nil {
		return nil, err
	}
	return s.store.GetDevice(ctx, device.ID)
}

func (s *CatalogService) UpdateDevice(ctx context.Context, id uint, in DeviceInput) (*models.Device, error) {
	device, err := s.resolveDeviceInput(ctx, in)
	if err != nil {
		return nil, err
	}
	device.ID = id
	if err := s.store.UpdateDevice(ctx, device); err != nil {
		return nil, err
	}
	return s.store.GetDevice(ctx, id)
}

func (s *CatalogService) Devices(ctx context.Context, categoryID, brandID uint) ([]models.Device, error) {
	return s.store.ListDevices(ctx, categoryID, brandID)
}

func (s *CatalogService) Device(ctx context.Context, id uint) (*models.Device, error) {
	return s.store.GetDevice(ctx, id)
}

// SelectableFaults lists the faults a customer may pick for a device.
func (s *CatalogService) SelectableFaults(ctx context.Context, categoryID, brandID uint, model string) ([]models.Fault, error) {
	device, err := s.store.FindDevice(ctx, categoryID, brandID, strings.TrimSpace(model))
	if err != nil {
		return nil, err
	}
	return s.store.ListFaults(ctx, device.ID, true)
}

// DeviceFaults lists a device's faults for maintenance, optionally with the
// deactivated ones.
func (s *CatalogService) DeviceFaults(ctx context.Context, deviceID uint, includeInactive bool) ([]models.Fault, error) {
	if _, err := s.store.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.store.ListFaults(ctx, deviceID, !includeInactive)
}

type FaultInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (in FaultInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("fault name is required")
	}
	if in.Price < 0 {
		return apperr.Validation("fault price cannot be negative")
	}
	return nil
}

func (s *CatalogService) CreateFault(ctx context.Context, deviceID uint, in FaultInput) (*models.Fault, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	fault := &models.Fault{
		DeviceID:    deviceID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		IsActive:    true,
	}
	if err := s.store.CreateFault(ctx, fault); err != nil {
		return nil, err
	}
	return fault, nil
}

// UpdateFault edits a fault. Bookings keep the values they were created with.
func (s *CatalogService) UpdateFault(ctx context.Context, id uint, in FaultInput) (*models.Fault, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fault := &models.Fault{ID: id, Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description), Price: in.Price}
	if err := s.store.UpdateFault(ctx, fault); err != nil {
		return nil, err
	}
	return s.store.GetFault(ctx, id)
}

// DeactivateFault soft-deletes a fault.
func (s *CatalogService) DeactivateFault(ctx context.Context, id uint) error {
	return s.store.SetFaultActive(ctx, id, false)
}

func (s *CatalogService) ReactivateFault(ctx context.Context, id uint) error {
	return s.store.SetFaultActive(ctx, id, true)
}

func (s *CatalogService) DurationTiers(ctx context.Context, activeOnly bool) ([]models.DurationTier, error) {
	return s.store.ListDurationTiers(ctx, activeOnly)
}

// SaveDurationTier creates or updates a tier by name.
func (s *CatalogService) SaveDurationTier(ctx context.Context, tier models.DurationTier) (*models.DurationTier, error) {
	tier.Name = strings.ToLower(strings.TrimSpace(tier.Name))
	if tier.Name == "" {
		return nil, apperr.Validation("duration name is required")
	}
	if tier.ExtraCharge < 0 {
		return nil, apperr.Validation("extra charge cannot be negative")
	}
	if existing, err := s.store.GetDurationTier(ctx, tier.Name); err == nil {
		tier.ID = existing.ID
		tier.CreatedAt = existing.CreatedAt
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	if err := s.store.SaveDurationTier(ctx, &tier); err != nil {
		return nil, err
	}
	return &tier, nil
}
