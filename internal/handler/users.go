package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/utils"
)

// userConstraintError answers a unique violation on users, reporting false
// when err is something else.
func (h *Handler) userConstraintError(w http.ResponseWriter, r *http.Request, err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		h.badRequest(w, r, errors.New("username already taken"))
	case "users_email_key":
		h.badRequest(w, r, errors.New("email already registered"))
	default:
		return false
	}
	return true
}

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "users loaded", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required,alphanum,max=50"`
		FullName string `json:"fullName" validate:"required,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=admin consultorio internacion completo"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if !h.userConstraintError(w, r, err) {
			h.internalServerError(w, r, err)
		}
		return
	}

	// the account exists from here on, a failed mail only loses the password notice
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: req.FullName,
			Username: req.Username,
			Password: password,
		},
	}
	if err := h.mailer.Publish(r.Context(), mailMessage); err != nil {
		h.log.Error("queue welcome mail", zap.Int64("user_id", user.ID), zap.Error(err))
		h.successResponse(w, r, "user created, but the welcome mail could not be queued", user)
		return
	}

	h.successResponse(w, r, "user created", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "user loaded", user)
}

// UpdateUser edits an account. Users are deactivated, never deleted, so
// their shift history keeps its doctor.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,max=100"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=admin consultorio internacion completo"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		switch {
		case h.userConstraintError(w, r, err):
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, "user changed meanwhile, try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "user updated", user)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "password changed", nil)
}
