package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gatepass-backend/api/responses"
	"github.com/angelmondragon/gatepass-backend/api/validators"
	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/pagination"
)

func audienceParam(r *http.Request) (enums.NotificationAudience, error) {
	raw, err := validators.RequireParam(r, "audience")
	if err != nil {
		return "", err
	}
	audience, err := enums.ParseNotificationAudience(strings.ToLower(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid audience").WithDetails(map[string]any{"field": "audience"})
	}
	return audience, nil
}

// ListNotifications returns a cursor page of notifications for an audience.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		audience, err := audienceParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unread, err := validators.ParseQueryBool(r, "unread")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), notifications.ListParams{
			Audience:   audience,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			UnreadOnly: unread,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkNotificationRead flags a single notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "read": true})
	}
}

// MarkAllNotificationsRead flags every unread notification of an audience.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audience, err := audienceParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.MarkAllRead(r.Context(), audience)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"audience": audience, "updated": count})
	}
}
