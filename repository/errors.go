// Package repository implements the service stores on top of gorm.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"repairhub-server/apperr"
)

// translate maps a gorm error onto the failure taxonomy. what names the
// record for the message, e.g. "device".
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return apperr.Conflict("%s already exists", what)
	}
	return apperr.Dependency(err, "failed to access %s", what)
}

// isUniqueViolation catches driver errors that were not translated by gorm.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
