package lifecycle

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func freeInput(category, date string) CreateInput {
	return CreateInput{NewShiftInput: shift.NewShiftInput{Date: date, Category: category}}
}

func assignedInput(category, date string, doctorID int64) CreateInput {
	in := freeInput(category, date)
	in.DoctorID = int64Ptr(doctorID)
	return in
}

func TestClaimRaceExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.mustCreate(t, freeInput("guardia_24", "2024-03-10"))

	const n = 24
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
		lost    int
		other   []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(doctorID int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.Claim(ctx, target.ID, domain.Actor{ID: doctorID, Role: domain.RoleCompleto})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, doctorID)
			case errors.Is(err, domain.ErrAlreadyClaimed):
				lost++
			default:
				other = append(other, err)
			}
		}(int64(100 + i))
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if len(winners) != 1 || lost != n-1 {
		t.Fatalf("winners = %v, lost = %d; want exactly one winner and %d losers", winners, lost, n-1)
	}
	got := f.stored(t, target.ID)
	if !got.IsOwnedBy(winners[0]) || got.Status != domain.ShiftStatusConfirmed || got.ShiftType != domain.ShiftTypeAssigned {
		t.Errorf("stored shift = %+v, want confirmed and owned by %d", got, winners[0])
	}
	if accepted := f.events.types(target.ID); !slices.Equal(accepted, []domain.EventType{domain.EventCreated, domain.EventAccepted}) {
		t.Errorf("events = %v, want one accepted entry", accepted)
	}
}

func TestOwnershipInvariantAcrossOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-12", internistaA))

	steps := []struct {
		name string
		run  func() error
	}{
		{"reject", func() error { _, err := f.svc.Reject(ctx, sh.ID, doctorA); return err }},
		{"claim by B", func() error { _, err := f.svc.Claim(ctx, sh.ID, doctorB); return err }},
		{"cancel by B", func() error { _, err := f.svc.Cancel(ctx, sh.ID, doctorB); return err }},
		{"escalate", func() error { _, err := f.svc.MarkPending(ctx, sh.ID); return err }},
		{"claim by A", func() error { _, err := f.svc.Claim(ctx, sh.ID, doctorA); return err }},
		{"release", func() error { _, err := f.svc.Release(ctx, sh.ID, adminActor); return err }},
		{"claim by B again", func() error { _, err := f.svc.Claim(ctx, sh.ID, doctorB); return err }},
		{"reassign to A", func() error {
			_, err := f.svc.Update(ctx, sh.ID, adminActor, UpdateInput{DoctorID: int64Ptr(internistaA)})
			return err
		}},
		{"confirm by A", func() error { _, err := f.svc.Confirm(ctx, sh.ID, doctorA); return err }},
		{"confirm twice", func() error {
			if _, err := f.svc.Confirm(ctx, sh.ID, doctorA); !errors.Is(err, domain.ErrInvalidState) {
				return errors.New("second confirm was accepted")
			}
			return nil
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		got := f.stored(t, sh.ID)
		if !shift.CheckOwnership(got) {
			t.Fatalf("after %s: doctor=%v type=%s status=%s breaks ownership", step.name, got.DoctorID, got.ShiftType, got.Status)
		}
		if got.ShiftType == domain.ShiftTypeFree && len(got.AssignedToPool) == 0 {
			t.Fatalf("after %s: free shift without pool", step.name)
		}
	}
}

func TestRejectNormalizesToFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("refuerzo", "2024-03-11", consultorioID))
	if len(sh.AssignedToPool) != 0 {
		t.Fatalf("assigned shift created with pool %v", sh.AssignedToPool)
	}

	got, err := f.svc.Reject(ctx, sh.ID, domain.Actor{ID: consultorioID, Role: domain.RoleConsultorio})
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	stored := f.stored(t, sh.ID)
	for _, s := range []*domain.Shift{got, stored} {
		if s.Status != domain.ShiftStatusFree || s.ShiftType != domain.ShiftTypeFree || s.DoctorID != nil {
			t.Errorf("shift not normalized: %+v", s)
		}
		if !slices.Equal(s.AssignedToPool, domain.Pool{domain.RoleConsultorio, domain.RoleInternacion}) {
			t.Errorf("pool = %v, want [consultorio internacion]", s.AssignedToPool)
		}
	}
	if types := f.events.types(sh.ID); !slices.Equal(types, []domain.EventType{domain.EventCreated, domain.EventRejected}) {
		t.Errorf("events = %v", types)
	}

	declined := f.sink.ofType(domain.NotificationShiftDeclined)
	if len(declined) != 1 || !slices.Equal(recipientIDs(declined[0]), []int64{adminID}) {
		t.Errorf("declined notifications = %+v", declined)
	}
	if declined[0].Shift.DoctorName != "Carlos Consultorio" {
		t.Errorf("declined snapshot doctor = %q", declined[0].Shift.DoctorName)
	}
	broadcast := f.sink.ofType(domain.NotificationFreeShiftAvailable)
	if len(broadcast) != 1 || !slices.Equal(recipientIDs(broadcast[0]), []int64{internistaA, internistaB, completoID}) {
		t.Errorf("free broadcast = %+v, want every other doctor", broadcast)
	}
}

func TestClockSequencing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("internacion_noche", "2024-03-10", internistaA))
	if sh.ClockIn != nil || sh.ClockOut != nil {
		t.Fatal("clock fields set on creation")
	}
	if _, err := f.svc.ClockIn(ctx, sh.ID, internistaA); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("clock in before confirm error = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Confirm(ctx, sh.ID, doctorA); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ClockOut(ctx, sh.ID, internistaA); !errors.Is(err, domain.ErrNotClockedIn) {
		t.Errorf("clock out first error = %v, want ErrNotClockedIn", err)
	}
	if _, err := f.svc.ClockIn(ctx, sh.ID, internistaB); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("clock in by other doctor error = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.ClockIn(ctx, sh.ID, internistaA); err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if _, err := f.svc.ClockIn(ctx, sh.ID, internistaA); !errors.Is(err, domain.ErrAlreadyClockedIn) {
		t.Errorf("double clock in error = %v, want ErrAlreadyClockedIn", err)
	}
	if _, err := f.svc.ClockOut(ctx, sh.ID, internistaA); err != nil {
		t.Fatalf("ClockOut() error = %v", err)
	}
	if _, err := f.svc.ClockOut(ctx, sh.ID, internistaA); !errors.Is(err, domain.ErrAlreadyClockedOut) {
		t.Errorf("double clock out error = %v, want ErrAlreadyClockedOut", err)
	}
	if _, err := f.svc.Cancel(ctx, sh.ID, doctorA); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("cancel after start error = %v, want ErrInvalidState", err)
	}
}

func TestCreateRecurringSeries(t *testing.T) {
	f := newFixture(t)
	in := assignedInput("consultorio_manana", "2024-01-01", consultorioID)
	in.RecurringUntil = "2024-01-22"

	res, err := f.svc.Create(context.Background(), adminActor, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.Requested != 4 || res.Created != 4 || res.RecurrenceID != "series-1" {
		t.Fatalf("result = %+v", res)
	}

	var dates []string
	for _, s := range res.Shifts {
		dates = append(dates, s.ShiftDate)
		if s.ID == 0 || *s.RecurrenceID != "series-1" {
			t.Errorf("instance %+v not stored in the series", s)
		}
		if s.ShiftArea != domain.AreaConsultorio || s.ShiftHours != "8-14" {
			t.Errorf("instance %s has %s/%s", s.ShiftDate, s.ShiftArea, s.ShiftHours)
		}
	}
	if want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}; !slices.Equal(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}

	first := f.events.types(res.Shifts[0].ID)
	if !slices.Equal(first, []domain.EventType{domain.EventCreated, domain.EventRecurrenceGenerated}) {
		t.Errorf("first instance events = %v", first)
	}
	assigned := f.sink.ofType(domain.NotificationShiftAssigned)
	if len(assigned) != 1 || assigned[0].SeriesCount != 4 {
		t.Errorf("assigned notifications = %+v, want one covering 4 shifts", assigned)
	}
}

func TestCreateRecurringBatchFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failBatch = &domain.StorageError{Op: "insert shifts", Err: errors.New("connection reset")}
	in := freeInput("refuerzo", "2024-01-01")
	in.RecurringUntil = "2024-01-22"

	res, err := f.svc.Create(context.Background(), adminActor, in)
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Create() error = %v, want StorageError", err)
	}
	if res == nil || res.Requested != 4 || res.Created != 0 {
		t.Errorf("result = %+v, want 0 of 4 created", res)
	}
	if len(f.sink.sent) != 0 || len(f.events.events) != 0 {
		t.Error("side effects emitted for a failed batch")
	}
}

func TestDeleteAllFuture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := freeInput("internacion_dia", "2024-01-01")
	in.RecurringUntil = "2024-01-22"
	res, err := f.svc.Create(ctx, adminActor, in)
	if err != nil {
		t.Fatal(err)
	}

	n, err := f.svc.Delete(ctx, res.Shifts[1].ID, adminActor, true)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d rows, want 3", n)
	}
	left, _ := f.store.ListShifts(ctx, domain.ShiftFilter{RecurrenceID: &res.RecurrenceID})
	if len(left) != 1 || left[0].ShiftDate != "2024-01-01" {
		t.Errorf("remaining = %v, want only 2024-01-01", left)
	}
}

func TestDeleteAllFutureWithoutSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.mustCreate(t, freeInput("refuerzo", "2024-01-01"))
	b := f.mustCreate(t, freeInput("refuerzo", "2024-01-08"))

	n, err := f.svc.Delete(ctx, a.ID, adminActor, true)
	if err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v; want 1 row", n, err)
	}
	if _, err := f.store.GetShift(ctx, b.ID); err != nil {
		t.Errorf("unrelated shift removed: %v", err)
	}
	if _, err := f.svc.Delete(ctx, b.ID, doctorA, false); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("doctor delete error = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Delete(ctx, a.ID, adminActor, false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete missing error = %v, want ErrNotFound", err)
	}
}

func TestConfirmByNonOwner(t *testing.T) {
	f := newFixture(t)
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-10", internistaA))

	_, err := f.svc.Confirm(context.Background(), sh.ID, doctorB)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Confirm() error = %v, want ErrUnauthorized", err)
	}
	if got := f.stored(t, sh.ID); got.Status != domain.ShiftStatusNew {
		t.Errorf("status = %s, want new", got.Status)
	}
	if _, err := f.svc.Confirm(context.Background(), 999, doctorA); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing shift error = %v, want ErrNotFound", err)
	}
}

func TestEndToEndFreeShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := freeInput("internacion_dia", "2024-03-10")
	in.Area = domain.AreaInternacion

	sh := f.mustCreate(t, in)
	if !slices.Equal(sh.AssignedToPool, domain.Pool{domain.RoleInternacion}) {
		t.Fatalf("pool = %v, want [internacion]", sh.AssignedToPool)
	}
	available := f.sink.ofType(domain.NotificationFreeShiftAvailable)
	if len(available) != 1 || !slices.Equal(recipientIDs(available[0]), []int64{internistaA, internistaB}) {
		t.Errorf("free broadcast = %+v, want internacion doctors", available)
	}

	claimed, err := f.svc.Claim(ctx, sh.ID, domain.Actor{ID: completoID, Role: domain.RoleCompleto})
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if claimed.Status != domain.ShiftStatusConfirmed || !claimed.IsOwnedBy(completoID) || claimed.ShiftType != domain.ShiftTypeAssigned {
		t.Fatalf("claimed = %+v", claimed)
	}
	if _, err := f.svc.ClockIn(ctx, sh.ID, completoID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ClockOut(ctx, sh.ID, completoID); err != nil {
		t.Fatal(err)
	}

	got := f.stored(t, sh.ID)
	if got.ClockIn == nil || got.ClockOut == nil || !got.ClockIn.Before(*got.ClockOut) {
		t.Errorf("clock_in %v should precede clock_out %v", got.ClockIn, got.ClockOut)
	}
	want := []domain.EventType{domain.EventCreated, domain.EventAccepted, domain.EventClockIn, domain.EventClockOut}
	if types := f.events.types(sh.ID); !slices.Equal(types, want) {
		t.Errorf("events = %v, want %v", types, want)
	}
	if accepted := f.sink.ofType(domain.NotificationFreeShiftAccepted); len(accepted) != 1 {
		t.Errorf("free_shift_accepted sent %d times", len(accepted))
	}
}

func TestClaimPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assigned := f.mustCreate(t, assignedInput("guardia_24", "2024-03-10", completoID))
	free := f.mustCreate(t, freeInput("guardia_24", "2024-03-11"))

	if _, err := f.svc.Claim(ctx, assigned.ID, doctorA); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("claim of new assignment error = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Claim(ctx, free.ID, adminActor); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("admin claim error = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Claim(ctx, free.ID, doctorA); err != nil {
		t.Fatalf("claim outside pool: %v", err)
	}
	if _, err := f.svc.Claim(ctx, free.ID, doctorB); !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Errorf("late claim error = %v, want ErrAlreadyClaimed", err)
	}
}

func TestStorageFailureSuppressesSideEffects(t *testing.T) {
	f := newFixture(t)
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-10", internistaA))
	f.store.failUpdate = &domain.StorageError{Op: "update shift", Err: errors.New("connection reset")}
	before := len(f.sink.sent)

	_, err := f.svc.Confirm(context.Background(), sh.ID, doctorA)
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) || domain.IsBusinessError(err) {
		t.Fatalf("Confirm() error = %v, want a StorageError", err)
	}
	if types := f.events.types(sh.ID); !slices.Equal(types, []domain.EventType{domain.EventCreated}) {
		t.Errorf("events = %v, want only created", types)
	}
	if len(f.sink.sent) != before {
		t.Error("notification emitted after failed update")
	}
}

func TestSideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	sh := f.mustCreate(t, freeInput("consultorio_tarde", "2024-03-10"))
	f.sink.fail = errors.New("broker down")
	f.events.fail = errors.New("audit table locked")

	if _, err := f.svc.Claim(context.Background(), sh.ID, domain.Actor{ID: consultorioID, Role: domain.RoleConsultorio}); err != nil {
		t.Fatalf("Claim() error = %v, want success despite side effect failures", err)
	}
	if got := f.stored(t, sh.ID); !got.IsOwnedBy(consultorioID) {
		t.Errorf("claim not committed: %+v", got)
	}
}

func TestCancelByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-10", internistaA))
	if _, err := f.svc.Cancel(ctx, sh.ID, doctorA); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("cancel of unconfirmed shift error = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Confirm(ctx, sh.ID, doctorA); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Cancel(ctx, sh.ID, doctorA)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got.Status != domain.ShiftStatusFree || got.DoctorID != nil {
		t.Errorf("cancelled shift = %+v", got)
	}
	events, _ := f.events.ListEvents(ctx, sh.ID)
	last := events[len(events)-1]
	if last.EventType != domain.EventFreed || last.Note != "cancelled by doctor" {
		t.Errorf("last event = %+v", last)
	}
}

func TestMarkPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, freeInput("refuerzo", "2024-03-10"))

	got, err := f.svc.MarkPending(ctx, sh.ID)
	if err != nil {
		t.Fatalf("MarkPending() error = %v", err)
	}
	if got.Status != domain.ShiftStatusFreePending || got.FreePendingAt == nil {
		t.Errorf("shift = %+v, want free_pending with timestamp", got)
	}
	if _, err := f.svc.MarkPending(ctx, sh.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second escalation error = %v, want ErrInvalidState", err)
	}
	free, _ := f.svc.ListFree(ctx, "2024-03-01")
	if len(free) != 1 {
		t.Errorf("free_pending shift not listed as free: %v", free)
	}
}

func TestPromoteToRecurring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("guardia_24", "2024-02-26", completoID))
	if _, err := f.svc.Confirm(ctx, sh.ID, domain.Actor{ID: completoID, Role: domain.RoleCompleto}); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.PromoteToRecurring(ctx, sh.ID, adminActor, "2024-03-18")
	if err != nil {
		t.Fatalf("PromoteToRecurring() error = %v", err)
	}
	if res.Requested != 3 || res.Created != 3 {
		t.Errorf("result = %+v, want 3 instances", res)
	}
	existing := f.stored(t, sh.ID)
	if existing.RecurrenceID == nil || *existing.RecurrenceID != res.RecurrenceID {
		t.Errorf("recurrence id not backfilled: %v", existing.RecurrenceID)
	}
	series, _ := f.store.ListShifts(ctx, domain.ShiftFilter{RecurrenceID: &res.RecurrenceID})
	if len(series) != 4 || series[0].ID != sh.ID {
		t.Fatalf("series = %v, want the original plus 3", series)
	}
	for _, s := range series[1:] {
		if s.Status != domain.ShiftStatusConfirmed || !s.IsOwnedBy(completoID) {
			t.Errorf("instance %s = %s/%v", s.ShiftDate, s.Status, s.DoctorID)
		}
	}

	if _, err := f.svc.PromoteToRecurring(ctx, sh.ID, adminActor, "2024-04-01"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second promote error = %v, want ErrInvalidState", err)
	}
	single := f.mustCreate(t, freeInput("refuerzo", "2024-02-26"))
	if _, err := f.svc.PromoteToRecurring(ctx, single.ID, adminActor, "2024-02-28"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("promote without future instances error = %v, want ErrValidation", err)
	}
}

func TestPromoteToRecurringBatchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-01-01", internistaA))
	before := len(f.events.events)

	f.store.failBatch = &domain.StorageError{Op: "insert shifts", Err: errors.New("connection reset")}
	res, err := f.svc.PromoteToRecurring(ctx, sh.ID, adminActor, "2024-01-22")
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("PromoteToRecurring() error = %v, want StorageError", err)
	}
	if res == nil || res.Requested != 3 || res.Created != 0 {
		t.Errorf("result = %+v, want 0 of 3 created", res)
	}
	if got := f.stored(t, sh.ID); got.RecurrenceID != nil {
		t.Errorf("template kept series id %s after a failed batch", *got.RecurrenceID)
	}
	if len(f.events.events) != before {
		t.Error("audit entries written for a failed batch")
	}

	f.store.failBatch = nil
	res, err = f.svc.PromoteToRecurring(ctx, sh.ID, adminActor, "2024-01-22")
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	series, _ := f.store.ListShifts(ctx, domain.ShiftFilter{RecurrenceID: &res.RecurrenceID})
	if len(series) != 4 {
		t.Errorf("series after retry = %d shifts, want 4", len(series))
	}
}

func TestFreeingLosesToConcurrentClockIn(t *testing.T) {
	tests := []struct {
		name string
		free func(f *fixture, id int64) (*domain.Shift, error)
	}{
		{"release by admin", func(f *fixture, id int64) (*domain.Shift, error) {
			return f.svc.Release(context.Background(), id, adminActor)
		}},
		{"cancel by owner", func(f *fixture, id int64) (*domain.Shift, error) {
			return f.svc.Cancel(context.Background(), id, doctorA)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-10", internistaA))
			if _, err := f.svc.Confirm(ctx, sh.ID, doctorA); err != nil {
				t.Fatal(err)
			}
			broadcasts := len(f.sink.ofType(domain.NotificationFreeShiftAvailable))

			fired := false
			f.store.afterGet = func(id int64) {
				if fired {
					return
				}
				fired = true
				if _, err := f.svc.ClockIn(ctx, id, internistaA); err != nil {
					t.Errorf("ClockIn() error = %v", err)
				}
			}

			if _, err := tt.free(f, sh.ID); !errors.Is(err, domain.ErrInvalidState) {
				t.Fatalf("free after clock in error = %v, want ErrInvalidState", err)
			}
			f.store.afterGet = nil

			got := f.stored(t, sh.ID)
			if got.Status != domain.ShiftStatusConfirmed || !got.IsOwnedBy(internistaA) || got.ClockIn == nil {
				t.Errorf("stored shift = %s/%v clock_in=%v, want confirmed, owned, clocked in", got.Status, got.DoctorID, got.ClockIn)
			}
			want := []domain.EventType{domain.EventCreated, domain.EventConfirmed, domain.EventClockIn}
			if types := f.events.types(sh.ID); !slices.Equal(types, want) {
				t.Errorf("events = %v, want %v", types, want)
			}
			if n := len(f.sink.ofType(domain.NotificationFreeShiftAvailable)); n != broadcasts {
				t.Errorf("free broadcasts = %d, want %d", n, broadcasts)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("internacion_dia", "2024-03-10", internistaA))
	if _, err := f.svc.Confirm(ctx, sh.ID, doctorA); err != nil {
		t.Fatal(err)
	}

	category := "internacion_noche"
	notes := `<script>alert(1)</script>bring <b>keys</b>`
	got, err := f.svc.Update(ctx, sh.ID, adminActor, UpdateInput{
		Category: &category,
		Notes:    &notes,
		DoctorID: int64Ptr(internistaB),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ShiftHours != "20-8" || got.Notes != "bring keys" {
		t.Errorf("hours/notes = %q/%q", got.ShiftHours, got.Notes)
	}
	if got.Status != domain.ShiftStatusNew || !got.IsOwnedBy(internistaB) {
		t.Errorf("reassigned shift = %s owned by %v", got.Status, got.DoctorID)
	}
	assigned := f.sink.ofType(domain.NotificationShiftAssigned)
	if last := assigned[len(assigned)-1]; !slices.Equal(recipientIDs(last), []int64{internistaB}) {
		t.Errorf("reassignment notified %v", recipientIDs(last))
	}

	if _, err := f.svc.Update(ctx, sh.ID, adminActor, UpdateInput{DoctorID: int64Ptr(adminID)}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("assigning to an admin error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.Update(ctx, sh.ID, doctorB, UpdateInput{Notes: &notes}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("doctor update error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	backwards := freeInput("refuerzo", "2024-01-22")
	backwards.RecurringUntil = "2024-01-01"
	tests := []struct {
		name    string
		actor   domain.Actor
		in      CreateInput
		wantErr error
	}{
		{"doctor cannot create", doctorA, freeInput("refuerzo", "2024-01-01"), domain.ErrUnauthorized},
		{"recurrence ends before start", adminActor, backwards, domain.ErrValidation},
		{"unknown doctor", adminActor, assignedInput("refuerzo", "2024-01-01", 999), domain.ErrValidation},
		{"missing category", adminActor, freeInput("", "2024-01-01"), domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.actor, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(f.store.rows) != 0 {
		t.Errorf("%d rows stored by invalid requests", len(f.store.rows))
	}
}

func TestSaveDoctorNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sh := f.mustCreate(t, assignedInput("consultorio_manana", "2024-03-10", consultorioID))
	carlos := domain.Actor{ID: consultorioID, Role: domain.RoleConsultorio}

	if _, err := f.svc.SaveDoctorNotes(ctx, sh.ID, consultorioID, "late"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("notes on unconfirmed shift error = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Confirm(ctx, sh.ID, carlos); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.SaveDoctorNotes(ctx, sh.ID, consultorioID, "<i>patient</i> transferred")
	if err != nil {
		t.Fatalf("SaveDoctorNotes() error = %v", err)
	}
	if got.DoctorNotes != "patient transferred" {
		t.Errorf("doctor notes = %q", got.DoctorNotes)
	}
}
