package services

import (
	"context"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type LocalityService struct {
	store LocalityStore
}

func NewLocalityService(store LocalityStore) *LocalityService {
	return &LocalityService{store: store}
}

func (s *LocalityService) States(ctx context.Context) ([]models.State, error) {
	return s.store.ListStates(ctx)
}

func (s *LocalityService) CreateState(ctx context.Context, name, code string) (*models.State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("state name is required")
	}
	state := &models.State{Name: name, Code: strings.ToUpper(strings.TrimSpace(code))}
	if err := s.store.CreateState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *LocalityService) Cities(ctx context.Context, stateID uint, activeOnly bool) ([]models.City, error) {
	return s.store.ListCities(ctx, stateID, activeOnly)
}

func (s *LocalityService) City(ctx context.Context, id uint) (*models.City, error) {
	return s.store.GetCity(ctx, id)
}

type CityInput struct {
	Name      string   `json:"name"`
	StateID   uint     `json:"state_id"`
	Pincodes  []string `json:"pincodes"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	IsActive  *bool    `json:"is_active"`
}

// normalizePincodes trims entries and drops blanks and duplicates, keeping order.
func normalizePincodes(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (s *LocalityService) buildCity(ctx context.Context, id uint, in CityInput) (*models.City, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("city name is required")
	}
	if in.StateID == 0 {
		return nil, apperr.Validation("state is required")
	}
	pincodes := normalizePincodes(in.Pincodes)
	if len(pincodes) == 0 {
		return nil, apperr.Validation("at least one pincode is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, apperr.Validation("coordinates are out of range")
	}
	if _, err := s.store.GetState(ctx, in.StateID); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if active {
		taken, err := s.store.ActiveNameTaken(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("an active city named %q already exists", name)
		}
	}
	return &models.City{
		ID:        id,
		Name:      name,
		StateID:   in.StateID,
		Pincodes:  pincodes,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		IsActive:  active,
	}, nil
}

func (s *LocalityService) CreateCity(ctx context.Context, in CityInput) (*models.City, error) {
	city, err := s.buildCity(ctx, 0, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCity(ctx, city); err != nil {
		return nil, err
	}
	return s.store.GetCity(ctx, city.ID)
}

func (s *LocalityService) UpdateCity(ctx context.Context, id uint, in CityInput) (*models.City, error) {
	if _, err := s.store.GetCity(ctx, id); err != nil {
		return nil, err
	}
	city, err := s.buildCity(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	return s.store.GetCity(ctx, id)
}

// SetCityActive toggles a city; activating checks name uniqueness again.
func (s *LocalityService) SetCityActive(ctx context.Context, id uint, active bool) error {
	city, err := s.store.GetCity(ctx, id)
	if err != nil {
		return err
	}
	if active && !city.IsActive {
		taken, err := s.store.ActiveNameTaken(ctx, city.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("an active city named %q already exists", city.Name)
		}
	}
	return s.store.SetCityActive(ctx, id, active)
}

// DeleteCity removes a city permanently.
func (s *LocalityService) DeleteCity(ctx context.Context, id uint) error {
	return s.store.DeleteCity(ctx, id)
}
