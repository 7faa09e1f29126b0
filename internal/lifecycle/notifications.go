package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func recipients(users []*domain.User) []domain.Recipient {
	out := make([]domain.Recipient, 0, len(users))
	for _, u := range users {
		out = append(out, domain.Recipient{UserID: u.ID, FullName: u.FullName, Email: u.Email})
	}
	return out
}

func (s *Service) snapshot(ctx context.Context, sh *domain.Shift) domain.ShiftSnapshot {
	if sh.DoctorID == nil {
		return domain.NewShiftSnapshot(sh, nil)
	}
	doctor, err := s.users.GetUserByID(ctx, *sh.DoctorID)
	if err != nil {
		s.logger.Warn("load shift doctor for notification",
			zap.Int64("shift_id", sh.ID),
			zap.Int64("doctor_id", *sh.DoctorID),
			zap.Error(err))
		doctor = nil
	}
	return domain.NewShiftSnapshot(sh, doctor)
}

func (s *Service) emit(ctx context.Context, typ domain.NotificationType, sh *domain.Shift, to []*domain.User, seriesCount int) {
	if len(to) == 0 {
		s.logger.Debug("notification without recipients",
			zap.Int64("shift_id", sh.ID),
			zap.String("type", string(typ)))
		return
	}
	n := domain.Notification{
		Type:        typ,
		Recipients:  recipients(to),
		Shift:       s.snapshot(ctx, sh),
		SeriesCount: seriesCount,
		CreatedAt:   s.now(),
	}
	if err := s.sink.Emit(ctx, n); err != nil {
		s.logger.Error("emit notification",
			zap.Int64("shift_id", sh.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

func (s *Service) notifyDoctor(ctx context.Context, typ domain.NotificationType, sh *domain.Shift, doctorID int64, seriesCount int) {
	doctor, err := s.users.GetUserByID(ctx, doctorID)
	if err != nil {
		s.logger.Error("load notification recipient",
			zap.Int64("shift_id", sh.ID),
			zap.Int64("user_id", doctorID),
			zap.Error(err))
		return
	}
	s.emit(ctx, typ, sh, []*domain.User{doctor}, seriesCount)
}

func (s *Service) notifyAdmins(ctx context.Context, typ domain.NotificationType, sh *domain.Shift) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("list admins for notification",
			zap.Int64("shift_id", sh.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
		return
	}
	s.emit(ctx, typ, sh, admins, 0)
}

// broadcastFree announces a free shift to the doctors not busy on its date.
// When byPool is set the audience is further narrowed to the shift's pool.
func (s *Service) broadcastFree(ctx context.Context, sh *domain.Shift, exclude *int64, byPool bool, seriesCount int) {
	eligible, err := s.EligibleDoctors(ctx, sh.ShiftDate, exclude)
	if err != nil {
		s.logger.Error("resolve eligible doctors",
			zap.Int64("shift_id", sh.ID),
			zap.String("date", sh.ShiftDate),
			zap.Error(err))
		return
	}
	if byPool {
		eligible = shift.FilterByPool(eligible, sh.AssignedToPool)
	}
	s.emit(ctx, domain.NotificationFreeShiftAvailable, sh, eligible, seriesCount)
}

// Remind sends the day-before reminder of a confirmed shift to its doctor.
func (s *Service) Remind(ctx context.Context, sh *domain.Shift) {
	if sh.DoctorID == nil {
		return
	}
	s.notifyDoctor(ctx, domain.NotificationShiftReminder, sh, *sh.DoctorID, 0)
}
