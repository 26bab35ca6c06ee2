package service

import (
	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

// requireActor rejects a nil authenticated user. The JWT middleware
// guarantees one on protected routes; direct callers may not.
func requireActor(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	return nil
}
