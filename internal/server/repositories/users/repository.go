// Package users maps the user table of the record store onto models.User.
package users

import (
	"context"

	"github.com/dmitrijs2005/ecoportal/internal/server/models"
)

// Column names of the user table.
const (
	ColID             = "ID"
	ColEmail          = "Correo electrónico"
	ColPasswordHash   = "Contraseña (hash)"
	ColFullName       = "Nombre completo"
	ColLastLogin      = "Último inicio de sesión"
	ColNotes          = "Notas"
	ColFailedAttempts = "Intentos fallidos de login"
	ColLockedUntil    = "Bloqueado hasta"
)

// Repository is the credential store used by the auth service. Every method
// is a remote call and returns the store's error wrapped.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	TouchLastLogin(ctx context.Context, recordID string) error
	RecordFailedAttempt(ctx context.Context, recordID string, current int) error
	SetPassword(ctx context.Context, recordID string, hash string) error
}
