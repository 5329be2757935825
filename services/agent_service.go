package services

import (
	"context"
	"log"
	"strings"
	"time"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/utils"
)

// AgentService is the agent directory: availability lookup for the booking
// wizard, agent self-service and admin management.
type AgentService struct {
	agents          AgentStore
	cities          LocalityStore
	presenceTimeout time.Duration
	clock           Clock
}

func NewAgentService(agents AgentStore, cities LocalityStore, presenceTimeout time.Duration) *AgentService {
	return &AgentService{agents: agents, cities: cities, presenceTimeout: presenceTimeout}
}

// Available lists agents in cityID that are approved, active and online,
// nearest to the city centre first.
func (s *AgentService) Available(ctx context.Context, cityID uint) ([]models.AgentWithDistance, error) {
	if cityID == 0 {
		return nil, apperr.Validation("city is required")
	}
	city, err := s.cities.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.ListAvailable(ctx, cityID)
	if err != nil {
		return nil, err
	}

	centre := utils.Location{Latitude: city.Latitude, Longitude: city.Longitude}
	distances := utils.SortByDistance(agents, centre, func(a models.Agent) utils.Location {
		if a.Latitude == 0 && a.Longitude == 0 {
			return centre
		}
		return utils.Location{Latitude: a.Latitude, Longitude: a.Longitude}
	})

	out := make([]models.AgentWithDistance, len(agents))
	for i := range agents {
		out[i] = models.AgentWithDistance{Agent: agents[i], DistanceKm: distances[i]}
	}
	return out, nil
}

func (s *AgentService) Get(ctx context.Context, id uint) (*models.Agent, error) {
	return s.agents.Get(ctx, id)
}

// ForUser resolves the agent record behind a logged-in agent account.
func (s *AgentService) ForUser(ctx context.Context, userID uint) (*models.Agent, error) {
	agent, err := s.agents.GetByUserID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("account is not linked to an agent")
		}
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) SetOnline(ctx context.Context, userID uint, online bool) (*models.Agent, error) {
	agent, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if online && !agent.IsActive {
		return nil, apperr.Conflict("a deactivated agent cannot go online")
	}
	if err := s.agents.SetOnline(ctx, agent.ID, online, s.clock.now()); err != nil {
		return nil, err
	}
	return s.agents.Get(ctx, agent.ID)
}

// Heartbeat refreshes last_seen so the presence job keeps the agent online.
func (s *AgentService) Heartbeat(ctx context.Context, userID uint) error {
	agent, err := s.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.agents.Touch(ctx, agent.ID, s.clock.now())
}

type AgentProfileInput struct {
	ShopName        string   `json:"shop_name"`
	ShopStreet      string   `json:"shop_street"`
	ShopPincode     string   `json:"shop_pincode"`
	Specializations []string `json:"specializations"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

func (s *AgentService) UpdateProfile(ctx context.Context, userID uint, in AgentProfileInput) (*models.Agent, error) {
	agent, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.ShopName); name != "" {
		agent.ShopName = name
	}
	if street := strings.TrimSpace(in.ShopStreet); street != "" {
		agent.ShopStreet = street
	}
	if pin := strings.TrimSpace(in.ShopPincode); pin != "" {
		agent.ShopPincode = pin
	}
	if in.Specializations != nil {
		specs, err := validateSpecializations(in.Specializations)
		if err != nil {
			return nil, err
		}
		agent.Specializations = specs
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperr.Validation("latitude and longitude must be sent together")
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180 {
			return nil, apperr.Validation("coordinates are out of range")
		}
		agent.Latitude, agent.Longitude = *in.Latitude, *in.Longitude
	}

	if err := s.agents.UpdateProfile(ctx, agent); err != nil {
		return nil, err
	}
	return s.agents.Get(ctx, agent.ID)
}

func (s *AgentService) List(ctx context.Context, cityID uint, page models.Page) ([]models.Agent, int64, error) {
	return s.agents.List(ctx, cityID, page)
}

func (s *AgentService) SetActive(ctx context.Context, id uint, active bool) (*models.Agent, error) {
	if _, err := s.agents.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.agents.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.agents.Get(ctx, id)
}

// Payout moves amount from the agent's pending earnings to paid.
func (s *AgentService) Payout(ctx context.Context, id uint, amount float64) (*models.Agent, error) {
	if amount <= 0 {
		return nil, apperr.Validation("payout amount must be positive")
	}
	if _, err := s.agents.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.agents.RecordPayout(ctx, id, amount); err != nil {
		return nil, err
	}
	log.Printf("💰 Recorded payout of %.2f for agent %d", amount, id)
	return s.agents.Get(ctx, id)
}

// ExpireStale marks agents offline whose last heartbeat is older than the
// presence timeout.
func (s *AgentService) ExpireStale(ctx context.Context) (int64, error) {
	if s.presenceTimeout <= 0 {
		return 0, nil
	}
	return s.agents.MarkStaleOffline(ctx, s.clock.now().Add(-s.presenceTimeout))
}

func validateSpecializations(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, spec := range in {
		spec = strings.TrimSpace(spec)
		if !models.IsValidSpecialization(spec) {
			return nil, apperr.Validation("unknown specialization %q", spec)
		}
		if !seen[spec] {
			seen[spec] = true
			out = append(out, spec)
		}
	}
	if len(out) == 0 {
		return nil, apperr.Validation("at least one specialization is required")
	}
	return out, nil
}
