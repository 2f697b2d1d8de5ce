package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/api/middleware"
	"github.com/angelmondragon/gatepass-backend/api/responses"
	"github.com/angelmondragon/gatepass-backend/api/validators"
	"github.com/angelmondragon/gatepass-backend/internal/gatepasses"
	"github.com/angelmondragon/gatepass-backend/internal/photos"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

// PhotoService lists and streams scan photos.
type PhotoService interface {
	ListByPassNumber(ctx context.Context, passNumber string) ([]models.Photo, error)
	Open(ctx context.Context, id uuid.UUID) (*photos.Opened, error)
}

// GateScanExit records an exit scan with its photo.
func GateScanExit(svc GatePassService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return gateScan(svc.ScanExit, maxUploadBytes, logg)
}

// GateScanReturn records a return scan with its photo.
func GateScanReturn(svc GatePassService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return gateScan(svc.ScanReturn, maxUploadBytes, logg)
}

func gateScan(scan func(context.Context, gatepasses.ScanInput) (*models.GatePass, error), maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := validators.DecodeScanForm(w, r, maxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pass, err := scan(r.Context(), gatepasses.ScanInput{
			PassNumber: form.PassNumber,
			Photo:      form.Photo,
			ScannedBy:  middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gatepasses.ToDTO(pass))
	}
}

// GatePhotos lists every capture recorded for a pass number.
func GatePhotos(svc PhotoService, downloadBaseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := validators.RequireParam(r, "passNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByPassNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, photos.ToDTOs(rows, downloadBaseURL))
	}
}

// PhotoDownload streams a stored photo.
func PhotoDownload(svc PhotoService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "photoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opened, err := svc.Open(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer opened.Object.Body.Close()
		w.Header().Set("Cache-Control", "private, max-age=3600")
		responses.WriteBinary(w, opened.Object.ContentType, opened.Object.Size, opened.Object.Body)
	}
}
