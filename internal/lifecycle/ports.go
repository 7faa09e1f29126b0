package lifecycle

import (
	"context"
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// ShiftStore persists shift records. Missing rows are reported as
// domain.ErrNotFound and driver faults as *domain.StorageError.
type ShiftStore interface {
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)
	InsertShift(ctx context.Context, s *domain.Shift) error
	// InsertShifts writes the whole batch atomically and fills in ids and
	// timestamps. It returns the number of rows created.
	InsertShifts(ctx context.Context, shifts []*domain.Shift) (int, error)
	// ConditionalUpdateShift applies patch only while the stored status is one
	// of expected and returns the number of rows affected.
	ConditionalUpdateShift(ctx context.Context, id int64, expected []domain.ShiftStatus, patch domain.ShiftPatch, now time.Time) (int64, error)
	// PromoteSeries tags the template with the series id and inserts the
	// future instances atomically. It returns 0 when the template no longer
	// matches expected or already belongs to a series.
	PromoteSeries(ctx context.Context, id int64, expected []domain.ShiftStatus, recurrenceID string, future []*domain.Shift, now time.Time) (int, error)
	DeleteShift(ctx context.Context, id int64) (int64, error)
	DeleteSeriesFrom(ctx context.Context, recurrenceID string, fromDate string) (int64, error)
	ListShifts(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error)
	// BusyDoctorIDs lists the doctors holding any shift on the date.
	BusyDoctorIDs(ctx context.Context, date string) ([]int64, error)
}

type EventLog interface {
	AppendEvent(ctx context.Context, event *domain.ShiftEvent) error
	ListEvents(ctx context.Context, shiftID int64) ([]*domain.ShiftEvent, error)
}

type NotificationSink interface {
	Emit(ctx context.Context, n domain.Notification) error
}

// Directory answers who the doctors and admins are.
type Directory interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListDoctors(ctx context.Context) ([]*domain.User, error)
	ListAdmins(ctx context.Context) ([]*domain.User, error)
}
