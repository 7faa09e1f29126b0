package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetPayroll summarises confirmed shifts between from and to. With
// format=xlsx the summary is returned as a workbook download.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := struct {
		From   string `validate:"required,civildate"`
		To     string `validate:"required,civildate"`
		Format string `validate:"omitempty,oneof=json xlsx"`
	}{From: q.Get("from"), To: q.Get("to"), Format: q.Get("format")}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.To < req.From {
		h.errorResponse(w, r, "to must not be before from")
		return
	}

	shifts, err := h.shifts.List(r.Context(), domain.ShiftFilter{
		From:     req.From,
		To:       req.To,
		Statuses: []domain.ShiftStatus{domain.ShiftStatusConfirmed},
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	users, err := h.store.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	doctors := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if u.Role.IsDoctor() {
			doctors = append(doctors, u)
		}
	}

	payroll := report.Summarize(req.From, req.To, shifts, doctors)
	if req.Format != "xlsx" {
		h.successResponse(w, r, "payroll computed", payroll)
		return
	}

	var buf bytes.Buffer
	if err := report.ExportXLSX(&buf, payroll); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payroll_%s_%s.xlsx"`, req.From, req.To))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
