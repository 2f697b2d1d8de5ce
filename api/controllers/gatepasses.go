package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/api/middleware"
	"github.com/angelmondragon/gatepass-backend/api/responses"
	"github.com/angelmondragon/gatepass-backend/api/validators"
	"github.com/angelmondragon/gatepass-backend/internal/gatepasses"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

// GatePassService is the lifecycle surface the HTTP layer drives.
type GatePassService interface {
	Create(ctx context.Context, in gatepasses.CreateInput) (*models.GatePass, error)
	Get(ctx context.Context, id uuid.UUID) (*models.GatePass, error)
	GetByNumber(ctx context.Context, number string) (*models.GatePass, error)
	List(ctx context.Context, filter gatepasses.ListFilter) ([]models.GatePass, error)
	ListPending(ctx context.Context) ([]models.GatePass, error)
	Approve(ctx context.Context, id uuid.UUID, actor string) (*models.GatePass, error)
	Reject(ctx context.Context, id uuid.UUID, actor string) (*models.GatePass, error)
	ScanExit(ctx context.Context, in gatepasses.ScanInput) (*models.GatePass, error)
	ScanReturn(ctx context.Context, in gatepasses.ScanInput) (*models.GatePass, error)
}

type createGatePassRequest struct {
	PersonName   string `json:"personName" validate:"required,max=200"`
	Description  string `json:"description" validate:"required,max=2000"`
	IsReturnable bool   `json:"isReturnable"`
}

// HRCreateGatePass files a new pending pass on behalf of the acting HR user.
func HRCreateGatePass(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGatePassRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pass, err := svc.Create(r.Context(), gatepasses.CreateInput{
			PersonName:   req.PersonName,
			Description:  req.Description,
			IsReturnable: req.IsReturnable,
			CreatedBy:    middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, gatepasses.ToDTO(pass))
	}
}

// HRListGatePasses lists the passes filed by the acting user.
func HRListGatePasses(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorIDFromContext(r.Context())
		if actor == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id header required"))
			return
		}
		status, err := validators.ParseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePassList(w, r, logg, svc, gatepasses.ListFilter{Status: status, CreatedBy: actor})
	}
}

// AdminListGatePasses lists every pass with optional status and creator filters.
func AdminListGatePasses(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := validators.ParseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePassList(w, r, logg, svc, gatepasses.ListFilter{
			Status:    status,
			CreatedBy: r.URL.Query().Get("createdBy"),
		})
	}
}

// AdminPendingGatePasses returns the approval queue.
func AdminPendingGatePasses(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		passes, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gatepasses.ToDTOs(passes))
	}
}

func writePassList(w http.ResponseWriter, r *http.Request, logg *logger.Logger, svc GatePassService, filter gatepasses.ListFilter) {
	passes, err := svc.List(r.Context(), filter)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, gatepasses.ToDTOs(passes))
}

// GetGatePass loads a pass by its identifier.
func GetGatePass(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "gatepassId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pass, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gatepasses.ToDTO(pass))
	}
}

// GetGatePassByNumber loads a pass by its human-readable number.
func GetGatePassByNumber(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := validators.RequireParam(r, "passNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pass, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gatepasses.ToDTO(pass))
	}
}

// AdminApproveGatePass moves a pending pass to approved.
func AdminApproveGatePass(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return adminDecision(svc.Approve, logg)
}

// AdminRejectGatePass moves a pending pass to rejected.
func AdminRejectGatePass(svc GatePassService, logg *logger.Logger) http.HandlerFunc {
	return adminDecision(svc.Reject, logg)
}

func adminDecision(decide func(context.Context, uuid.UUID, string) (*models.GatePass, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "gatepassId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pass, err := decide(r.Context(), id, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gatepasses.ToDTO(pass))
	}
}
