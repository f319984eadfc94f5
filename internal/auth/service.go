package auth

import (
	"time"

	"github.com/google/uuid"

	"sevenms-trading-bot/internal/logging"
)

// Config holds authentication settings. The service runs for a single
// operator account configured at startup.
type Config struct {
	Enabled            bool   `json:"enabled"`
	JWTSecret          string `json:"jwt_secret"`
	OperatorUsername   string `json:"operator_username"`
	OperatorPasswordH  string `json:"operator_password_hash"`
	AccessTokenMinutes int    `json:"access_token_minutes"`
	RefreshTokenHours  int    `json:"refresh_token_hours"`
}

// Service authenticates the operator and issues tokens
type Service struct {
	cfg        Config
	operatorID string
	jwt        *JWTManager
	passwords  *PasswordManager
	logger     *logging.Logger
}

// NewService creates the authentication service
func NewService(cfg Config) *Service {
	if cfg.AccessTokenMinutes <= 0 {
		cfg.AccessTokenMinutes = 60
	}
	if cfg.RefreshTokenHours <= 0 {
		cfg.RefreshTokenHours = 24 * 7
	}

	return &Service{
		cfg:        cfg,
		operatorID: uuid.New().String(),
		jwt: NewJWTManager(cfg.JWTSecret,
			time.Duration(cfg.AccessTokenMinutes)*time.Minute,
			time.Duration(cfg.RefreshTokenHours)*time.Hour),
		passwords: NewPasswordManager(DefaultBcryptCost),
		logger:    logging.WithComponent("auth"),
	}
}

// JWT returns the token manager for middleware wiring
func (s *Service) JWT() *JWTManager {
	return s.jwt
}

// Login verifies the operator credentials and issues a token pair
func (s *Service) Login(username, password string) (*TokenPair, error) {
	if username != s.cfg.OperatorUsername ||
		!s.passwords.VerifyPassword(password, s.cfg.OperatorPasswordH) {
		s.logger.Warn("Login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwt.GenerateTokenPair(OperatorClaims{
		OperatorID: s.operatorID,
		Username:   username,
		Role:       "operator",
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Operator logged in", "username", username)
	return pair, nil
}
