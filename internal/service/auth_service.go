package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"wordcards/internal/credentials"
	"wordcards/internal/metrics"
	"wordcards/internal/models"
	"wordcards/internal/repository"
	"wordcards/internal/security"
	"wordcards/internal/validation"
)

// AuthService is the in-process identity provider
type AuthService struct {
	accounts        *repository.AccountRepository
	tokens          *security.TokenSigner
	emailService    *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. emailService may be nil.
func NewAuthService(accounts *repository.AccountRepository, tokens *security.TokenSigner, emailService *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		accounts:        accounts,
		tokens:          tokens,
		emailService:    emailService,
		sessionDuration: sessionDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a new password account
func (s *AuthService) SignUp(ctx context.Context, email, password, username string) (*models.Account, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}

	existing, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		metrics.AuthAttempts.WithLabelValues("failure", "signup").Inc()
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("success", "signup").Inc()

	if s.emailService != nil && s.emailService.IsEnabled() {
		if err := s.emailService.SendWelcomeEmail(ctx, account.Email, account.Username); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", account.Email, err)
		}
	}

	return account, nil
}

// SignIn checks credentials and opens a new session
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.AuthToken, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || !security.CheckPassword(password, account.PasswordHash) {
		metrics.AuthAttempts.WithLabelValues("failure", "signin").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("success", "signin").Inc()
	return token, nil
}

func (s *AuthService) openSession(ctx context.Context, account *models.Account) (*models.AuthToken, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().UTC().Add(s.sessionDuration)

	if _, err := s.accounts.CreateSession(ctx, sessionID, account.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	signed, err := s.tokens.Sign(account.ID, sessionID, expiresAt)
	if err != nil {
		_ = s.accounts.DeleteSession(ctx, sessionID)
		return nil, err
	}

	return &models.AuthToken{
		Token:     signed,
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

// Authenticate verifies a token and its server-side session
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Account, *models.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.accounts.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.AccountID != claims.Subject {
		return nil, nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		_ = s.accounts.DeleteSession(ctx, session.ID)
		return nil, nil, ErrSessionExpired
	}

	account, err := s.accounts.GetAccountByID(ctx, session.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, nil, ErrSessionNotFound
	}

	return account, session, nil
}

// CurrentAccount returns the account a token belongs to
func (s *AuthService) CurrentAccount(ctx context.Context, token string) (*models.Account, error) {
	account, _, err := s.Authenticate(ctx, token)
	return account, err
}

// SignOut revokes the session behind a token
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return ErrSessionNotFound
	}
	if err := s.accounts.DeleteSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// UpdateUsername changes an account's display name
func (s *AuthService) UpdateUsername(ctx context.Context, accountID, username string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateUsername(ctx, accountID, username, time.Now().UTC()); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// OAuthLogin signs in through an external provider, linking the account
// with the same email or creating a new one.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.AuthToken, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth account: %w", err)
	}

	if account == nil {
		existing, err := s.accounts.GetAccountByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing account: %w", err)
		}

		now := time.Now().UTC()
		if existing != nil {
			// Already linked to another provider or another subject
			if existing.OAuthProvider != "" {
				metrics.AuthAttempts.WithLabelValues("failure", "oauth").Inc()
				return nil, ErrEmailTaken
			}
			if err := s.accounts.LinkOAuthProvider(ctx, existing.ID, provider, subject, now); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			existing.OAuthProvider = provider
			existing.OAuthSubject = subject
			account = existing
		} else {
			if validation.ValidateUsername(name) != nil {
				name = strings.Split(email, "@")[0]
			}
			if validation.ValidateUsername(name) != nil {
				if name, err = credentials.GenerateDisplayName(); err != nil {
					return nil, fmt.Errorf("failed to generate display name: %w", err)
				}
			}
			account = &models.Account{
				ID:            uuid.NewString(),
				Email:         email,
				Username:      strings.TrimSpace(name),
				OAuthProvider: provider,
				OAuthSubject:  subject,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.accounts.CreateAccount(ctx, account); err != nil {
				return nil, fmt.Errorf("failed to create oauth account: %w", err)
			}
			if s.emailService != nil && s.emailService.IsEnabled() {
				if err := s.emailService.SendWelcomeEmail(ctx, account.Email, account.Username); err != nil {
					log.Printf("Warning: failed to send welcome email to %s: %v", account.Email, err)
				}
			}
		}
	}

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("success", "oauth").Inc()
	return token, nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.accounts.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}
