// Package users implements the user record store: PostgreSQL and SQLite
// repositories plus an in-memory one for development and tests.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists user records keyed by id and by unique email.
//
// Create assigns the id and fails with common.ErrorDuplicateKey on an email
// collision. FindByEmail fails with common.ErrorNotFound. DeleteByID does not
// fail for an unknown id.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateToken(ctx context.Context, id, token string) error
	DeleteByID(ctx context.Context, id string) error
}
