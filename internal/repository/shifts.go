package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// shift_date is read back as text so it never passes through a time zone.
// The pool is read as a comma separated list and written as an array literal.
const shiftColumns = `
	id, to_char(shift_date, 'YYYY-MM-DD'), shift_category, shift_area, shift_hours,
	doctor_id, shift_type, array_to_string(assigned_to_pool, ','), status,
	free_pending_at, clock_in, clock_out, doctor_notes, notes, recurrence_id::text,
	created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanShift(row scanner) (*domain.Shift, error) {
	s := &domain.Shift{}
	dst := []any{
		&s.ID, &s.ShiftDate, &s.ShiftCategory, &s.ShiftArea, &s.ShiftHours,
		&s.DoctorID, &s.ShiftType, &s.AssignedToPool, &s.Status,
		&s.FreePendingAt, &s.ClockIn, &s.ClockOut, &s.DoctorNotes, &s.Notes, &s.RecurrenceID,
		&s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	s, err := scanShift(r.dbpool.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: shift %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrap("get shift", err)
	}
	return s, nil
}

func shiftInsertArgs(s *domain.Shift) []any {
	return []any{
		s.ShiftDate, s.ShiftCategory, s.ShiftArea, s.ShiftHours, s.DoctorID, s.ShiftType,
		poolArg(s.AssignedToPool), s.Status, s.FreePendingAt, s.DoctorNotes, s.Notes, s.RecurrenceID,
	}
}

const shiftInsertColumns = `shift_date, shift_category, shift_area, shift_hours, doctor_id, shift_type,
	assigned_to_pool, status, free_pending_at, doctor_notes, notes, recurrence_id`

func shiftPlaceholders(offset int) string {
	return fmt.Sprintf("($%d::date, $%d, $%d, $%d, $%d, $%d, $%d::text[], $%d, $%d, $%d, $%d, $%d::uuid)",
		offset+1, offset+2, offset+3, offset+4, offset+5, offset+6,
		offset+7, offset+8, offset+9, offset+10, offset+11, offset+12)
}

const shiftInsertArity = 12

// poolArg renders the pool as a text array literal. Plain strings go over
// the wire in text format, which postgres then casts.
func poolArg(p domain.Pool) string {
	v, _ := p.Value()
	return v.(string)
}

func (r *Repository) InsertShift(ctx context.Context, s *domain.Shift) error {
	query := `INSERT INTO shifts (` + shiftInsertColumns + `) VALUES ` + shiftPlaceholders(0) +
		` RETURNING id, created_at, updated_at`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, shiftInsertArgs(s)...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return wrap("insert shift", err)
	}
	return nil
}

// InsertShifts writes the batch with one multi-row INSERT inside a
// transaction, so either every row is created or none is.
func (r *Repository) InsertShifts(ctx context.Context, shifts []*domain.Shift) (int, error) {
	if len(shifts) == 0 {
		return 0, nil
	}

	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap("begin shift batch", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	n, err := insertShiftBatch(ctx, tx, shifts)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, wrap("commit shift batch", err)
	}
	return n, nil
}

// PromoteSeries tags the template with recurrenceID and inserts the future
// instances in one transaction. It returns 0 without error when the template
// no longer matches expected or already belongs to a series.
func (r *Repository) PromoteSeries(ctx context.Context, id int64, expected []domain.ShiftStatus, recurrenceID string, future []*domain.Shift, now time.Time) (int, error) {
	query, args, err := conditionalUpdateQuery(id, expected, domain.ShiftPatch{
		RecurrenceID:    &recurrenceID,
		RequireNoSeries: true,
	}, now)
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap("begin promote series", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("tag series template", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("tag series template", err)
	}
	if matched == 0 {
		return 0, nil
	}

	n, err := insertShiftBatch(ctx, tx, future)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, wrap("commit promote series", err)
	}
	return n, nil
}

func insertShiftBatch(ctx context.Context, tx *sql.Tx, shifts []*domain.Shift) (int, error) {
	if len(shifts) == 0 {
		return 0, nil
	}
	values := make([]string, 0, len(shifts))
	args := make([]any, 0, len(shifts)*shiftInsertArity)
	for i, s := range shifts {
		values = append(values, shiftPlaceholders(i*shiftInsertArity))
		args = append(args, shiftInsertArgs(s)...)
	}
	query := `INSERT INTO shifts (` + shiftInsertColumns + `) VALUES ` + strings.Join(values, ", ") +
		` RETURNING id, created_at, updated_at`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("insert shift batch", err)
	}
	defer rows.Close()

	// postgres returns the rows of a VALUES insert in input order
	i := 0
	for rows.Next() {
		if i >= len(shifts) {
			return 0, wrap("insert shift batch", errors.New("more rows returned than inserted"))
		}
		if err := rows.Scan(&shifts[i].ID, &shifts[i].CreatedAt, &shifts[i].UpdatedAt); err != nil {
			return 0, wrap("scan shift batch", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return 0, wrap("insert shift batch", err)
	}
	if err := rows.Close(); err != nil {
		return 0, wrap("insert shift batch", err)
	}
	return i, nil
}

// setClause collects "column = $n" pairs for a dynamic UPDATE.
type setClause struct {
	parts []string
	args  []any
}

func (c *setClause) add(column, cast string, value any) {
	c.args = append(c.args, value)
	c.parts = append(c.parts, fmt.Sprintf("%s = $%d%s", column, len(c.args), cast))
}

func patchClause(patch domain.ShiftPatch, now time.Time) *setClause {
	c := &setClause{}
	if patch.ShiftDate != nil {
		c.add("shift_date", "::date", *patch.ShiftDate)
	}
	if patch.ShiftCategory != nil {
		c.add("shift_category", "", *patch.ShiftCategory)
	}
	if patch.ShiftArea != nil {
		c.add("shift_area", "", *patch.ShiftArea)
	}
	if patch.ShiftHours != nil {
		c.add("shift_hours", "", *patch.ShiftHours)
	}
	if patch.SetDoctor {
		c.add("doctor_id", "", patch.DoctorID)
	}
	if patch.ShiftType != nil {
		c.add("shift_type", "", *patch.ShiftType)
	}
	if patch.AssignedToPool != nil {
		c.add("assigned_to_pool", "::text[]", poolArg(patch.AssignedToPool))
	}
	if patch.Status != nil {
		c.add("status", "", *patch.Status)
	}
	if patch.SetFreePending {
		c.add("free_pending_at", "", patch.FreePendingAt)
	}
	if patch.ClockIn != nil {
		c.add("clock_in", "", *patch.ClockIn)
	}
	if patch.ClockOut != nil {
		c.add("clock_out", "", *patch.ClockOut)
	}
	if patch.DoctorNotes != nil {
		c.add("doctor_notes", "", *patch.DoctorNotes)
	}
	if patch.Notes != nil {
		c.add("notes", "", *patch.Notes)
	}
	if patch.RecurrenceID != nil {
		c.add("recurrence_id", "::uuid", *patch.RecurrenceID)
	}
	c.add("updated_at", "", now)
	return c
}

// conditionalUpdateQuery builds the compare-and-set UPDATE. The status guard
// and the extra conditions of the patch live in the WHERE clause, so of
// several concurrent writers expecting the same state only the first matches.
func conditionalUpdateQuery(id int64, expected []domain.ShiftStatus, patch domain.ShiftPatch, now time.Time) (string, []any, error) {
	if len(expected) == 0 {
		return "", nil, fmt.Errorf("%w: no expected status given", domain.ErrInvalidState)
	}

	c := patchClause(patch, now)
	c.args = append(c.args, id)
	idParam := len(c.args)
	placeholders := make([]string, 0, len(expected))
	for _, status := range expected {
		c.args = append(c.args, status)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(c.args)))
	}

	where := fmt.Sprintf("id = $%d AND status IN (%s)", idParam, strings.Join(placeholders, ", "))
	if patch.RequireNoClockIn {
		where += " AND clock_in IS NULL"
	}
	if patch.RequireNoSeries {
		where += " AND recurrence_id IS NULL"
	}
	return fmt.Sprintf(`UPDATE shifts SET %s WHERE %s`, strings.Join(c.parts, ", "), where), c.args, nil
}

// ConditionalUpdateShift is the compare-and-set every lifecycle transition
// goes through.
func (r *Repository) ConditionalUpdateShift(ctx context.Context, id int64, expected []domain.ShiftStatus, patch domain.ShiftPatch, now time.Time) (int64, error) {
	query, args, err := conditionalUpdateQuery(id, expected, patch, now)
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("update shift", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("update shift", err)
	}
	return n, nil
}

func (r *Repository) DeleteShift(ctx context.Context, id int64) (int64, error) {
	query := `DELETE FROM shifts WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return 0, wrap("delete shift", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("delete shift", err)
}

func (r *Repository) DeleteSeriesFrom(ctx context.Context, recurrenceID string, fromDate string) (int64, error) {
	query := `DELETE FROM shifts WHERE recurrence_id = $1::uuid AND shift_date >= $2::date`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, recurrenceID, fromDate)
	if err != nil {
		return 0, wrap("delete shift series", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("delete shift series", err)
}

func buildShiftFilter(f domain.ShiftFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.From != "" {
		conds = append(conds, "shift_date >= "+next(f.From)+"::date")
	}
	if f.To != "" {
		conds = append(conds, "shift_date <= "+next(f.To)+"::date")
	}
	if f.DoctorID != nil {
		conds = append(conds, "doctor_id = "+next(*f.DoctorID))
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			ph = append(ph, next(s))
		}
		conds = append(conds, "status IN ("+strings.Join(ph, ", ")+")")
	}
	if f.CreatedBefore != nil {
		conds = append(conds, "created_at <= "+next(*f.CreatedBefore))
	}
	if f.RecurrenceID != nil {
		conds = append(conds, "recurrence_id = "+next(*f.RecurrenceID)+"::uuid")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) ListShifts(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	where, args := buildShiftFilter(filter)
	query := `SELECT ` + shiftColumns + ` FROM shifts` + where + ` ORDER BY shift_date, id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list shifts", err)
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, wrap("scan shift", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list shifts", err)
	}

	return shifts, nil
}

func (r *Repository) BusyDoctorIDs(ctx context.Context, date string) ([]int64, error) {
	query := `SELECT DISTINCT doctor_id FROM shifts WHERE shift_date = $1::date AND doctor_id IS NOT NULL`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, date)
	if err != nil {
		return nil, wrap("list busy doctors", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan busy doctor", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list busy doctors", err)
	}
	return ids, nil
}
