package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/lifecycle"
)

func actorOf(r *http.Request) domain.Actor {
	return r.Context().Value(MyInfoCtx).(*domain.User).Actor()
}

func shiftIDOf(r *http.Request) int64 {
	return r.Context().Value(ShiftIDCtx).(int64)
}

// readShiftFilter parses ?from=&to=&doctorId=&status=a,b.
func (h *Handler) readShiftFilter(r *http.Request) (domain.ShiftFilter, error) {
	q := r.URL.Query()
	req := struct {
		From     string   `validate:"omitempty,civildate"`
		To       string   `validate:"omitempty,civildate"`
		DoctorID string   `validate:"omitempty,number"`
		Statuses []string `validate:"dive,oneof=new free confirmed free_pending"`
	}{
		From:     q.Get("from"),
		To:       q.Get("to"),
		DoctorID: q.Get("doctorId"),
	}
	if status := q.Get("status"); status != "" {
		req.Statuses = strings.Split(status, ",")
	}
	if err := h.validate.Struct(req); err != nil {
		return domain.ShiftFilter{}, err
	}

	filter := domain.ShiftFilter{From: req.From, To: req.To}
	if req.DoctorID != "" {
		id, err := strconv.ParseInt(req.DoctorID, 10, 64)
		if err != nil {
			return domain.ShiftFilter{}, err
		}
		filter.DoctorID = &id
	}
	for _, s := range req.Statuses {
		filter.Statuses = append(filter.Statuses, domain.ShiftStatus(s))
	}
	return filter, nil
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	filter, err := h.readShiftFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.shifts.List(r.Context(), filter)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts loaded", shifts)
}

func (h *Handler) ListFreeShifts(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		from = h.now().Format(domain.CivilDateLayout)
	}
	if err := h.validate.Var(from, "civildate"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.shifts.ListFree(r.Context(), from)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "free shifts loaded", shifts)
}

func (h *Handler) ListEligibleDoctors(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if err := h.validate.Var(date, "required,civildate"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	doctors, err := h.shifts.EligibleDoctors(r.Context(), date, nil)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "eligible doctors loaded", doctors)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date           string   `json:"date" validate:"required,civildate"`
		Category       string   `json:"category" validate:"required,shiftcategory"`
		Area           string   `json:"area" validate:"omitempty,shiftarea"`
		Hours          string   `json:"hours" validate:"omitempty,shifthours"`
		DoctorID       *int64   `json:"doctorID" validate:"omitempty,min=1"`
		Pool           []string `json:"pool" validate:"dive,oneof=consultorio internacion completo"`
		Notes          string   `json:"notes" validate:"max=1000"`
		RecurringUntil string   `json:"recurringUntil" validate:"omitempty,civildate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	pool := make(domain.Pool, 0, len(req.Pool))
	for _, role := range req.Pool {
		pool = append(pool, domain.Role(role))
	}

	result, err := h.shifts.Create(r.Context(), actorOf(r), lifecycle.CreateInput{
		NewShiftInput: shift.NewShiftInput{
			Date:     req.Date,
			Category: req.Category,
			Area:     domain.Area(req.Area),
			Hours:    req.Hours,
			DoctorID: req.DoctorID,
			Pool:     pool,
			Notes:    req.Notes,
		},
		RecurringUntil: req.RecurringUntil,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift created", result)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Get(r.Context(), shiftIDOf(r))
	h.shiftResult(w, r, "shift loaded", sh, err)
}

func (h *Handler) GetShiftEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.shifts.Events(r.Context(), shiftIDOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift history loaded", events)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     *string `json:"date" validate:"omitempty,civildate"`
		Category *string `json:"category" validate:"omitempty,shiftcategory"`
		Area     *string `json:"area" validate:"omitempty,shiftarea"`
		Hours    *string `json:"hours" validate:"omitempty,shifthours"`
		Notes    *string `json:"notes" validate:"omitempty,max=1000"`
		DoctorID *int64  `json:"doctorID" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	in := lifecycle.UpdateInput{
		Date:     req.Date,
		Category: req.Category,
		Hours:    req.Hours,
		Notes:    req.Notes,
		DoctorID: req.DoctorID,
	}
	if req.Area != nil {
		area := domain.Area(*req.Area)
		in.Area = &area
	}

	sh, err := h.shifts.Update(r.Context(), shiftIDOf(r), actorOf(r), in)
	h.shiftResult(w, r, "shift updated", sh, err)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	allFuture, _ := strconv.ParseBool(r.URL.Query().Get("allFuture"))

	n, err := h.shifts.Delete(r.Context(), shiftIDOf(r), actorOf(r), allFuture)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift deleted", map[string]int64{"deleted": n})
}

func (h *Handler) PromoteShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Until string `json:"until" validate:"required,civildate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.shifts.PromoteToRecurring(r.Context(), shiftIDOf(r), actorOf(r), req.Until)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift made recurring", result)
}

// shiftResult answers a lifecycle operation that returns the updated shift.
func (h *Handler) shiftResult(w http.ResponseWriter, r *http.Request, msg string, sh *domain.Shift, err error) {
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.successResponse(w, r, msg, sh)
}

func (h *Handler) ConfirmShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Confirm(r.Context(), shiftIDOf(r), actorOf(r))
	h.shiftResult(w, r, "shift confirmed", sh, err)
}

func (h *Handler) RejectShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Reject(r.Context(), shiftIDOf(r), actorOf(r))
	h.shiftResult(w, r, "shift rejected", sh, err)
}

func (h *Handler) ReleaseShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Release(r.Context(), shiftIDOf(r), actorOf(r))
	h.shiftResult(w, r, "shift released", sh, err)
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Cancel(r.Context(), shiftIDOf(r), actorOf(r))
	h.shiftResult(w, r, "shift cancelled", sh, err)
}

func (h *Handler) ClaimShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.Claim(r.Context(), shiftIDOf(r), actorOf(r))
	h.shiftResult(w, r, "shift claimed", sh, err)
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.ClockIn(r.Context(), shiftIDOf(r), actorOf(r).ID)
	h.shiftResult(w, r, "clocked in", sh, err)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shifts.ClockOut(r.Context(), shiftIDOf(r), actorOf(r).ID)
	h.shiftResult(w, r, "clocked out", sh, err)
}

func (h *Handler) SaveDoctorNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes" validate:"max=2000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sh, err := h.shifts.SaveDoctorNotes(r.Context(), shiftIDOf(r), actorOf(r).ID, req.Notes)
	h.shiftResult(w, r, "notes saved", sh, err)
}
