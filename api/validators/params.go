package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

// ParseUUIDParam reads a chi URL parameter as a UUID. Malformed ids are a
// validation failure, never a lookup miss.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// RequireParam reads a non-empty chi URL parameter.
func RequireParam(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
	}
	return raw, nil
}
