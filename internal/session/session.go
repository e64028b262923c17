package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/logger"
	"gorm.io/gorm"
)

// Identity is the signed-in user stamped on every outgoing request. One row
// at most lives in the local store; it survives restarts until SignOut.
type Identity struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"column:user_id"`
	Username  string `gorm:"column:username"`
	FullName  string `gorm:"column:full_name"`
	Role      string `gorm:"column:role"`
	Token     string `gorm:"column:token"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the local table name stable.
func (Identity) TableName() string { return "session_identities" }

// Manager owns the process-wide session identity with an explicit lifecycle:
// Restore on startup, SignIn on login, SignOut on logout. Call sites read it
// through accessors instead of touching shared globals.
type Manager struct {
	mu      sync.RWMutex
	db      *gorm.DB
	logg    *logger.Logger
	current *Identity
}

// NewManager migrates the local store and returns an empty manager.
func NewManager(db *gorm.DB, logg *logger.Logger) (*Manager, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "migrate session store")
	}
	return &Manager{db: db, logg: logg}, nil
}

// Restore loads the persisted identity, discarding it when its token has
// already expired.
func (m *Manager) Restore(ctx context.Context) error {
	var stored Identity
	err := m.db.WithContext(ctx).Order("updated_at desc").First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load persisted session")
	}

	if tokenExpired(stored.Token) {
		if m.logg != nil {
			m.logg.Warn(m.logg.WithUser(ctx, stored.Username), "persisted session expired, discarding")
		}
		return m.SignOut(ctx)
	}

	m.mu.Lock()
	m.current = &stored
	m.mu.Unlock()
	if m.logg != nil {
		m.logg.Info(m.logg.WithUser(ctx, stored.Username), "session restored")
	}
	return nil
}

// SignIn persists the identity and makes it current.
func (m *Manager) SignIn(ctx context.Context, identity Identity) error {
	if strings.TrimSpace(identity.Username) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Identity{}).Error; err != nil {
			return err
		}
		identity.ID = 0
		return tx.Create(&identity).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session")
	}

	m.mu.Lock()
	m.current = &identity
	m.mu.Unlock()
	return nil
}

// SignOut clears the persisted identity and the in-memory state.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.db.WithContext(ctx).Where("1 = 1").Delete(&Identity{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear persisted session")
	}
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return nil
}

// Current returns a copy of the signed-in identity.
func (m *Manager) Current() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Identity{}, false
	}
	return *m.current, true
}

// Username feeds the X-User request header; empty when signed out.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Username
}

// Role returns the signed-in user's role, or false when signed out or the
// stored role is unknown.
func (m *Manager) Role() (enums.UserRole, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	role := enums.UserRole(m.current.Role)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// tokenExpired inspects the exp claim without verifying the signature; the
// backend is the authority, this only avoids restoring a session the server
// would reject anyway. Tokenless identities never expire locally.
func tokenExpired(token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
