package services

import (
	"context"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

var pushPlatforms = map[string]bool{"ios": true, "android": true, "web": true}

// PushService keeps the device tokens used for push delivery.
type PushService struct {
	tokens PushTokenStore
}

func NewPushService(tokens PushTokenStore) *PushService {
	return &PushService{tokens: tokens}
}

func (s *PushService) Register(ctx context.Context, userID uint, token, platform, deviceID string) (*models.PushToken, error) {
	token = strings.TrimSpace(token)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	if !pushPlatforms[platform] {
		return nil, apperr.Validation("platform must be ios, android or web")
	}
	pt := &models.PushToken{UserID: userID, Token: token, Platform: platform, DeviceID: strings.TrimSpace(deviceID)}
	if err := s.tokens.Upsert(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

func (s *PushService) Unregister(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("token is required")
	}
	return s.tokens.Deactivate(ctx, token)
}
