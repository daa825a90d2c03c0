// Package session persists the single logged-in identity in a small key-value
// file, independent of the relational store. The only coupling between the
// two is the stored user id: deleting the user row leaves the session file
// behind, and CurrentUser then reports nil while IsLoggedIn still says true.
//
// Login is a known insecure placeholder kept for parity with the app it
// backs: it succeeds whenever the email exists and never checks the password.
// A deployment that needs real authentication must add credential hashing as
// an explicit, separately reviewed change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/query"
	"github.com/mprlab/places/internal/repository"
	"go.uber.org/zap"
)

var (
	errMissingPath  = errors.New("session file path is required")
	errMissingUsers = errors.New("user query layer is required")
)

const (
	opLogin    = "session.login"
	opRegister = "session.register"
	opLogout   = "session.logout"
	opCurrent  = "session.current_user"
)

type record struct {
	CurrentUserID    string `json:"current_user_id"`
	CurrentUserEmail string `json:"current_user_email"`
}

// ManagerConfig describes the dependencies of the session manager.
type ManagerConfig struct {
	Path       string
	Users      *query.Users
	IDProvider repository.IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Manager tracks the logged-in user.
type Manager struct {
	mu       sync.Mutex
	path     string
	users    *query.Users
	ids      repository.IDProvider
	clock    func() time.Time
	logger   *zap.Logger
	validate *validator.Validate
}

// NewManager constructs the session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Path == "" {
		return nil, errMissingPath
	}
	if cfg.Users == nil {
		return nil, errMissingUsers
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = repository.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		path:     cfg.Path,
		users:    cfg.Users,
		ids:      ids,
		clock:    clock,
		logger:   logger,
		validate: validator.New(),
	}, nil
}

// Login looks the user up by email and, when found, persists the session and
// returns the user. The password is accepted unverified. An unknown email
// yields (nil, nil).
func (m *Manager) Login(ctx context.Context, email, password string) (*entity.User, error) {
	_ = password

	user, err := m.users.ByEmail(ctx, email)
	if err != nil {
		m.logger.Error("session error", zap.String("operation", opLogin), zap.Error(err))
		return nil, repository.NewStorageFailure(opLogin, "query_failed", err)
	}
	if user == nil {
		return nil, nil
	}
	if err := m.persist(record{CurrentUserID: user.ID, CurrentUserEmail: user.Email}); err != nil {
		m.logger.Error("session error", zap.String("operation", opLogin), zap.Error(err))
		return nil, repository.NewStorageFailure(opLogin, "persist_failed", err)
	}
	return user, nil
}

type registration struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	DisplayName string `validate:"required"`
}

// Register creates the account and logs it in. A duplicate email yields
// (nil, nil); malformed input yields a validation failure.
func (m *Manager) Register(ctx context.Context, email, password, displayName string) (*entity.User, error) {
	input := registration{Email: email, Password: password, DisplayName: displayName}
	if err := m.validate.Struct(input); err != nil {
		return nil, repository.NewValidationFailure(opRegister, "invalid_input", err)
	}

	existing, err := m.users.ByEmail(ctx, email)
	if err != nil {
		m.logger.Error("session error", zap.String("operation", opRegister), zap.Error(err))
		return nil, repository.NewStorageFailure(opRegister, "query_failed", err)
	}
	if existing != nil {
		return nil, nil
	}

	id, err := m.ids.NewID()
	if err != nil {
		m.logger.Error("session error", zap.String("operation", opRegister), zap.Error(err))
		return nil, repository.NewStorageFailure(opRegister, "id_generation_failed", err)
	}
	now := m.clock().UnixMilli()
	user := entity.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
	if err := m.users.Insert(ctx, &user); err != nil {
		m.logger.Error("session error", zap.String("operation", opRegister), zap.Error(err))
		return nil, repository.NewStorageFailure(opRegister, "write_failed", err)
	}
	if err := m.persist(record{CurrentUserID: user.ID, CurrentUserEmail: user.Email}); err != nil {
		m.logger.Error("session error", zap.String("operation", opRegister), zap.Error(err))
		return nil, repository.NewStorageFailure(opRegister, "persist_failed", err)
	}
	return &user, nil
}

// Logout clears the session record.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Error("session error", zap.String("operation", opLogout), zap.Error(err))
		return repository.NewStorageFailure(opLogout, "clear_failed", err)
	}
	return nil
}

// IsLoggedIn reports whether a user id is persisted. It does not verify the
// referenced row still exists.
func (m *Manager) IsLoggedIn() bool {
	rec, err := m.load()
	return err == nil && rec != nil && rec.CurrentUserID != ""
}

// CurrentUserID returns the persisted id, or empty when logged out.
func (m *Manager) CurrentUserID() string {
	rec, err := m.load()
	if err != nil || rec == nil {
		return ""
	}
	return rec.CurrentUserID
}

// CurrentUser resolves the persisted id against the store. A cleared session
// or a deleted user row both yield (nil, nil); callers treat that as "not
// logged in" even when IsLoggedIn still reports true.
func (m *Manager) CurrentUser(ctx context.Context) (*entity.User, error) {
	rec, err := m.load()
	if err != nil {
		m.logger.Error("session error", zap.String("operation", opCurrent), zap.Error(err))
		return nil, repository.NewStorageFailure(opCurrent, "read_failed", err)
	}
	if rec == nil || rec.CurrentUserID == "" {
		return nil, nil
	}
	user, err := m.users.ByID(ctx, rec.CurrentUserID)
	if err != nil {
		m.logger.Error("session error", zap.String("operation", opCurrent), zap.Error(err))
		return nil, repository.NewStorageFailure(opCurrent, "query_failed", err)
	}
	if user == nil {
		m.logger.Debug("session references deleted user",
			zap.String("user_id", rec.CurrentUserID))
	}
	return user, nil
}

func (m *Manager) persist(rec record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, encoded, 0o600)
}

func (m *Manager) load() (*record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
