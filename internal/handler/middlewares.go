package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.log.Info("request handled",
			zap.Int("status", rw.StatusCode),
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.log.Error("panic", zap.Any("error", err), zap.ByteString("stack", debug.Stack()))
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// parseToken validates the session cookie and returns its claims.
func (h *Handler) parseToken(r *http.Request) (*AuthClaims, error) {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return nil, err
	}

	claims := &AuthClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.parseToken(r)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "not logged in")
			default:
				h.errorResponse(w, r, "invalid token")
			}
			return
		}

		if h.revoker != nil && claims.ID != "" {
			revoked, err := h.revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}
			if revoked {
				h.errorResponse(w, r, "session closed, log in again")
				return
			}
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) myInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subString := r.Context().Value(SubCtxKey).(string)

		sub, err := strconv.ParseInt(subString, 10, 64)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		myInfo, err := h.store.GetUserByID(r.Context(), sub)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, "account does not exist")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MyInfoCtx, myInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventInactiveUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
		if !myInfo.IsActive {
			h.errorResponse(w, r, "account is deactivated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequiredRole checks the role of the loaded account rather than the token,
// so a role change applies without a new login.
func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
			if !slices.Contains(roles, myInfo.Role) {
				h.errorResponse(w, r, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) userInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			h.errorResponse(w, r, "invalid user id")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, "user does not exist")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserInfoCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserInfoCtx).(*domain.User)
		if user.Username == h.config.InitialAdmin.Username {
			h.errorResponse(w, r, "the initial admin cannot be modified")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) shiftID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			h.errorResponse(w, r, "invalid shift id")
			return
		}

		ctx := context.WithValue(r.Context(), ShiftIDCtx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
