package gatepasses

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// noticeFor returns the notice a transition sends, if any. Gate scans notify nobody.
func noticeFor(t Transition, pass *models.GatePass) (notifications.Notice, bool) {
	notice := notifications.Notice{GatePassID: pass.ID, PassNumber: pass.Number}
	switch t {
	case TransitionCreate:
		notice.Audience = enums.AudienceAdmin
		notice.Title = "New gate pass request"
		notice.Message = fmt.Sprintf("New gate pass %s created and pending approval", pass.Number)
	case TransitionApprove:
		notice.Audience = enums.AudienceHR
		notice.Title = "Gate pass approved"
		notice.Message = fmt.Sprintf("Gate pass %s has been approved", pass.Number)
	case TransitionReject:
		notice.Audience = enums.AudienceHR
		notice.Title = "Gate pass rejected"
		notice.Message = fmt.Sprintf("Gate pass %s has been rejected", pass.Number)
	default:
		return notifications.Notice{}, false
	}
	return notice, true
}

// notify runs the notifier in a savepoint so a failed notification rolls
// back only its own writes and never the transition.
func (s *Service) notify(ctx context.Context, tx *gorm.DB, t Transition, pass *models.GatePass) {
	if s.notifier == nil {
		return
	}
	notice, ok := noticeFor(t, pass)
	if !ok {
		return
	}
	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.notifier.Notify(ctx, sp, notice)
	})
	if err != nil {
		logCtx := s.logg.WithField(ctx, "audience", string(notice.Audience))
		s.logg.Warn(logCtx, "gate pass notification dropped: "+err.Error())
	}
}
