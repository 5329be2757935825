package storage

import (
	"context"
	"errors"
	"io"

	"repairhub-server/apperr"
	"repairhub-server/services"
)

var errNotConfigured = errors.New("object storage is not configured")

// Disabled stands in for object storage when no credentials are set, so
// the server still starts and uploads fail with a dependency error.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string, string) (services.StoredObject, error) {
	return services.StoredObject{}, apperr.Dependency(errNotConfigured, "image storage is unavailable")
}

func (Disabled) Delete(context.Context, string) error {
	return apperr.Dependency(errNotConfigured, "image storage is unavailable")
}
