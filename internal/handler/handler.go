package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/lifecycle"
	"github.com/guardias-hospital/shift-manager/backend/internal/utils"
)

// Store is implemented by *repository.Repository.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	ListDoctors(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error

	InsertAvailabilitySlot(ctx context.Context, slot *domain.AvailabilitySlot) error
	ListAvailabilitySlots(ctx context.Context, userID int64) ([]*domain.AvailabilitySlot, error)
	DeleteAvailabilitySlot(ctx context.Context, id, userID int64) error

	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]*domain.InAppNotification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
}

// Shifts is implemented by *lifecycle.Service.
type Shifts interface {
	Get(ctx context.Context, id int64) (*domain.Shift, error)
	List(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error)
	ListFree(ctx context.Context, from string) ([]*domain.Shift, error)
	Events(ctx context.Context, id int64) ([]*domain.ShiftEvent, error)
	EligibleDoctors(ctx context.Context, date string, exclude *int64) ([]*domain.User, error)

	Create(ctx context.Context, actor domain.Actor, in lifecycle.CreateInput) (*lifecycle.BatchResult, error)
	Update(ctx context.Context, id int64, actor domain.Actor, in lifecycle.UpdateInput) (*domain.Shift, error)
	Delete(ctx context.Context, id int64, actor domain.Actor, allFuture bool) (int64, error)
	PromoteToRecurring(ctx context.Context, id int64, actor domain.Actor, until string) (*lifecycle.BatchResult, error)

	Confirm(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error)
	Reject(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error)
	Release(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error)
	Cancel(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error)
	Claim(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error)
	ClockIn(ctx context.Context, id int64, doctorID int64) (*domain.Shift, error)
	ClockOut(ctx context.Context, id int64, doctorID int64) (*domain.Shift, error)
	SaveDoctorNotes(ctx context.Context, id int64, doctorID int64, text string) (*domain.Shift, error)
}

// Mailer queues transactional mail, see notify.QueueSink.
type Mailer interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

// TokenRevoker keeps the ids of logged out tokens, see cache.Client.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	store      Store
	shifts     Shifts
	translator ut.Translator
	mailer     Mailer
	revoker    TokenRevoker
	policy     *bluemonday.Policy
	log        *zap.Logger
	now        func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, store Store, shifts Shifts, mailer Mailer, revoker TokenRevoker, logger *zap.Logger) (*Handler, error) {
	validate, trans, err := utils.NewValidator()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		store:      store,
		shifts:     shifts,
		translator: trans,
		mailer:     mailer,
		revoker:    revoker,
		policy:     bluemonday.StrictPolicy(),
		log:        logger,
		now:        time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

var adminOnly = []domain.Role{domain.RoleAdmin}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below requires a session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)
		r.Use(h.preventInactiveUser)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})
		r.Get("/my-shifts", h.GetMyShifts)
		r.Route("/my-availability", func(r chi.Router) {
			r.Get("/", h.GetMyAvailability)
			r.Post("/", h.CreateMyAvailability)
			r.Delete("/{id}", h.DeleteMyAvailability)
		})
		r.Route("/my-notifications", func(r chi.Router) {
			r.Get("/", h.GetMyNotifications)
			r.Post("/{id}/read", h.MarkMyNotificationRead)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole(adminOnly))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Get("/free", h.ListFreeShifts)
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateShift)
			r.With(h.RequiredRole(adminOnly)).Get("/eligible-doctors", h.ListEligibleDoctors)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftID)
				r.Get("/", h.GetShift)
				r.Get("/events", h.GetShiftEvents)
				r.With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteShift)
				r.With(h.RequiredRole(adminOnly)).Post("/recurrence", h.PromoteShift)
				r.Post("/confirm", h.ConfirmShift)
				r.Post("/reject", h.RejectShift)
				r.Post("/release", h.ReleaseShift)
				r.Post("/cancel", h.CancelShift)
				r.Post("/claim", h.ClaimShift)
				r.Post("/clock-in", h.ClockIn)
				r.Post("/clock-out", h.ClockOut)
				r.Put("/doctor-notes", h.SaveDoctorNotes)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(h.RequiredRole(adminOnly))
			r.Get("/payroll", h.GetPayroll)
		})
	})
}
