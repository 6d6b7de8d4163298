package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/ecoportal/internal/common"
)

// Client-facing messages.
const (
	msgEmailRequired         = "Email es requerido"
	msgCredentialsRequired   = "Email y contraseña son requeridos"
	msgPasswordTooShort      = "La contraseña debe tener al menos 6 caracteres"
	msgPasswordTooLong       = "La contraseña no puede superar 72 bytes"
	msgUserNotFound          = "Usuario no encontrado"
	msgNoUserWithEmail       = "No se encontró un usuario con este correo"
	msgInvalidCredentials    = "Credenciales inválidas"
	msgLocked                = "Cuenta bloqueada. Intente de nuevo en %d minutos."
	msgPasswordSetupRequired = "Debe crear una contraseña"
	msgPasswordAlreadySet    = "Este usuario ya tiene una contraseña configurada"
	msgPasswordCreated       = "Contraseña creada exitosamente"
	msgServer                = "Error del servidor"
	msgInternal              = "Error interno del servidor"
	msgUnauthenticated       = "No autenticado"
	msgUploadRequired        = "Área y archivos son requeridos"
	msgInvalidArea           = "Área no válida"
	msgUploadTooLarge        = "Los archivos superan el tamaño máximo permitido"
	msgUploaded              = "Archivos subidos correctamente"
	msgInvalidRequest        = "Solicitud inválida"
)

// endpointText holds the messages whose wording differs between endpoints.
type endpointText struct {
	validation string
	notFound   string
	internal   string
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// classify maps a service error to status, message and metrics outcome.
// Anything unrecognised is an internal error.
func classify(err error, text endpointText) (int, string, string) {
	var locked *common.LockedError
	var setup *common.PasswordSetupRequiredError

	switch {
	case errors.As(err, &locked):
		return http.StatusLocked, fmt.Sprintf(msgLocked, locked.RemainingMinutes), "locked"
	case errors.As(err, &setup):
		return http.StatusPreconditionRequired, msgPasswordSetupRequired, "password_setup_required"
	case errors.Is(err, common.ErrPasswordTooShort):
		return http.StatusBadRequest, msgPasswordTooShort, "validation"
	case errors.Is(err, common.ErrPasswordTooLong):
		return http.StatusBadRequest, msgPasswordTooLong, "validation"
	case errors.Is(err, common.ErrInvalidArea):
		return http.StatusBadRequest, msgInvalidArea, "validation"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, text.validation, "validation"
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusNotFound, text.notFound, "not_found"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials, "invalid_credentials"
	case errors.Is(err, common.ErrPasswordAlreadySet):
		return http.StatusBadRequest, msgPasswordAlreadySet, "already_set"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgUnauthenticated, "unauthorized"
	default:
		return http.StatusInternalServerError, text.internal, "internal"
	}
}
