package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/respostas/core"
	"golang.org/x/crypto/bcrypt"
)

// DefaultUser is the team login used when none is configured.
const DefaultUser = "DPL"

var (
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid user or password", core.ErrUnauthorized)

	// ErrNoPassword indicates a gate configured without any password.
	ErrNoPassword = errors.New("access: a password or password hash is required")
)

// Session is the result of a login attempt.
type Session struct {
	ID         uuid.UUID
	User       string
	Authorized bool
}

// Require returns core.ErrUnauthorized unless the session is authorized.
func (s Session) Require() error {
	if !s.Authorized {
		return core.ErrUnauthorized
	}
	return nil
}

// Gate checks credentials against the configured team login.
type Gate struct {
	user   string
	hash   []byte
	cost   int
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate) error

// WithPassword sets the password in clear text. It is hashed immediately.
func WithPassword(password string) Option {
	return func(g *Gate) error {
		if password == "" {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
		if err != nil {
			return fmt.Errorf("access: hash password: %w", err)
		}
		g.hash = hash
		return nil
	}
}

// WithPasswordHash sets a bcrypt hash produced by HashPassword.
func WithPasswordHash(hash string) Option {
	return func(g *Gate) error {
		if hash == "" {
			return nil
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return fmt.Errorf("access: invalid password hash: %w", err)
		}
		g.hash = []byte(hash)
		return nil
	}
}

// WithCost sets the bcrypt cost used by WithPassword. It must precede WithPassword.
func WithCost(cost int) Option {
	return func(g *Gate) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("access: bcrypt cost %d out of range", cost)
		}
		g.cost = cost
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGate creates a gate for user. A password option is required.
func NewGate(user string, opts ...Option) (*Gate, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		user = DefaultUser
	}
	g := &Gate{
		user:   user,
		cost:   bcrypt.DefaultCost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if len(g.hash) == 0 {
		return nil, ErrNoPassword
	}
	g.logger = g.logger.With("component", "access")
	return g, nil
}

// User returns the configured login name.
func (g *Gate) User() string {
	return g.user
}

// Login checks user and password. On success the session is authorized; on
// failure the returned session is not, and the error is ErrInvalidCredentials.
func (g *Gate) Login(user, password string) (Session, error) {
	sess := Session{ID: uuid.New(), User: user}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
	if !userOK || !passOK {
		g.logger.Warn("login rejected", "user", user)
		return sess, ErrInvalidCredentials
	}

	sess.Authorized = true
	g.logger.Info("login accepted", "user", user, "session", sess.ID)
	return sess, nil
}

// HashPassword returns a bcrypt hash suitable for WithPasswordHash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
