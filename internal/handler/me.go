package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "account loaded", myInfo)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, "wrong current password")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = string(hashedPassword)

	if err := h.store.UpdateUser(r.Context(), myInfo); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, "account changed meanwhile, try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "password updated", nil)
}

func (h *Handler) GetMyShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	filter, err := h.readShiftFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	filter.DoctorID = &myInfo.ID

	shifts, err := h.shifts.List(r.Context(), filter)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts loaded", shifts)
}

func (h *Handler) GetMyAvailability(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	slots, err := h.store.ListAvailabilitySlots(r.Context(), myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "availability loaded", slots)
}

func (h *Handler) CreateMyAvailability(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		DayOfWeek int32  `json:"dayOfWeek" validate:"required,min=1,max=7"`
		StartTime string `json:"startTime" validate:"required,datetime=15:04"`
		EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
		Notes     string `json:"notes" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	slot := &domain.AvailabilitySlot{
		UserID:    myInfo.ID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     h.policy.Sanitize(req.Notes),
	}

	if err := h.store.InsertAvailabilitySlot(r.Context(), slot); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "availability_slots_user_day_start_key":
			h.errorResponse(w, r, "a slot already starts at that time on that day")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "availability saved", slot)
}

func (h *Handler) DeleteMyAvailability(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid slot id")
		return
	}

	if err := h.store.DeleteAvailabilitySlot(r.Context(), id, myInfo.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, "availability slot not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "availability deleted", nil)
}

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	items, err := h.store.ListNotifications(r.Context(), myInfo.ID, unreadOnly)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "notifications loaded", items)
}

func (h *Handler) MarkMyNotificationRead(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "invalid notification id")
		return
	}

	if err := h.store.MarkNotificationRead(r.Context(), id, myInfo.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, "notification not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "notification marked as read", nil)
}
