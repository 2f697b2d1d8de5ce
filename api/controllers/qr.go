package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/gatepass-backend/api/responses"
	"github.com/angelmondragon/gatepass-backend/api/validators"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

// QRSource opens the QR image of an existing pass.
type QRSource interface {
	OpenQR(ctx context.Context, passNumber string) (*storage.Object, error)
}

// QRImage serves the QR PNG issued at creation.
func QRImage(src QRSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := validators.RequireParam(r, "passNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		obj, err := src.OpenQR(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer obj.Body.Close()
		w.Header().Set("Cache-Control", "public, max-age=86400")
		responses.WriteBinary(w, obj.ContentType, obj.Size, obj.Body)
	}
}
