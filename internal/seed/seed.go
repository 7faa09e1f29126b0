// Package seed fills a database with the initial admin, sample doctors and
// shift rosters imported from CSV.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/lifecycle"
	"github.com/guardias-hospital/shift-manager/backend/internal/utils"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ShiftCreator interface {
	Create(ctx context.Context, actor domain.Actor, in lifecycle.CreateInput) (*lifecycle.BatchResult, error)
}

func isDuplicateUsername(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key"
}

// EnsureInitialAdmin creates the configured admin account unless the
// username is already taken, and returns it.
func EnsureInitialAdmin(ctx context.Context, users UserStore, cfg *config.Config) (*domain.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		if !isDuplicateUsername(err) {
			return nil, err
		}
		return users.GetUserByUsername(ctx, cfg.InitialAdmin.Username)
	}
	return admin, nil
}

// Doctors inserts n random doctors sharing one password. Username clashes
// are skipped.
func Doctors(ctx context.Context, users UserStore, n int, password, emailDomain string, logger *zap.Logger) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("doctor count must be positive, got %d", n)
	}

	created := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomDoctor(password, emailDomain)
		if err != nil {
			return created, err
		}
		if err := users.CreateUser(ctx, user); err != nil {
			if isDuplicateUsername(err) {
				logger.Warn("skip duplicate doctor", zap.String("username", user.Username))
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

// rosterColumns are the recognised CSV headers. date and category are
// required, the rest may be absent or empty.
var rosterColumns = []string{"date", "category", "doctor", "area", "hours", "pool", "recurring_until", "notes"}

type ImportResult struct {
	Rows    int
	Created int
	Failed  int
}

// ImportRoster creates one shift, or one weekly series, per CSV row. The
// doctor column holds a username and leaves the shift free when empty; pool
// holds roles separated by "|". A failing row is logged and skipped.
func ImportRoster(ctx context.Context, src io.Reader, users UserStore, shifts ShiftCreator, actor domain.Actor, logger *zap.Logger) (*ImportResult, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range rosterColumns[:2] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	result := &ImportResult{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read row %d: %w", result.Rows+1, err)
		}
		result.Rows++

		record := make(map[string]string, len(rosterColumns))
		for _, col := range rosterColumns {
			if i, ok := index[col]; ok && i < len(row) {
				record[col] = strings.TrimSpace(row[i])
			}
		}

		in, err := rosterInput(ctx, users, record)
		if err == nil {
			var batch *lifecycle.BatchResult
			batch, err = shifts.Create(ctx, actor, in)
			if err == nil {
				result.Created += batch.Created
				continue
			}
		}

		result.Failed++
		if !domain.IsBusinessError(err) {
			return result, fmt.Errorf("row %d: %w", result.Rows, err)
		}
		logger.Warn("skip roster row", zap.Int("row", result.Rows), zap.Any("record", record), zap.Error(err))
	}
	return result, nil
}

func rosterInput(ctx context.Context, users UserStore, record map[string]string) (lifecycle.CreateInput, error) {
	in := lifecycle.CreateInput{
		NewShiftInput: shift.NewShiftInput{
			Date:     record["date"],
			Category: record["category"],
			Area:     domain.Area(record["area"]),
			Hours:    record["hours"],
			Notes:    record["notes"],
		},
		RecurringUntil: record["recurring_until"],
	}

	if username := record["doctor"]; username != "" {
		doctor, err := users.GetUserByUsername(ctx, username)
		if errors.Is(err, domain.ErrNotFound) {
			return in, fmt.Errorf("%w: unknown doctor %q", domain.ErrValidation, username)
		}
		if err != nil {
			return in, err
		}
		in.DoctorID = &doctor.ID
	}

	if pool := record["pool"]; pool != "" {
		for _, role := range strings.Split(pool, "|") {
			in.Pool = append(in.Pool, domain.Role(strings.TrimSpace(role)))
		}
	}
	return in, nil
}
