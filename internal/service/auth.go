package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"carrental/internal/domain"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository"
)

const (
	minPasswordLength = 8
	otpDigits         = 6
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID, email, role string) (token string, jti string, err error)
	TTL() time.Duration
}

// AuthSettings tunes email verification.
type AuthSettings struct {
	OTPTTL         time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int
}

// AuthService handles registration, email verification and login.
type AuthService struct {
	userRepo repository.UserRepository
	otpStore internalRedis.OTPStoreInterface
	notifier *NotificationService
	tokens   TokenIssuer
	settings AuthSettings
	clock    Clock
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	otpStore internalRedis.OTPStoreInterface,
	notifier *NotificationService,
	tokens TokenIssuer,
	settings AuthSettings,
	clock Clock,
	logger *zap.Logger,
) *AuthService {
	if settings.OTPTTL <= 0 {
		settings.OTPTTL = 5 * time.Minute
	}
	if settings.OTPCooldown <= 0 {
		settings.OTPCooldown = time.Minute
	}
	if settings.OTPMaxAttempts <= 0 {
		settings.OTPMaxAttempts = 5
	}
	return &AuthService{
		userRepo: userRepo,
		otpStore: otpStore,
		notifier: notifier,
		tokens:   tokens,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     domain.Role // Optional: defaults to CUSTOMER
}

// Register creates an unverified account and emails a verification code.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         role,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// The account exists either way; the customer can ask for a new code.
	if err := s.issueCode(ctx, email); err != nil {
		s.logger.Warn("failed to send verification code", zap.String("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// SendVerificationCode emails a fresh code to an unverified account.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	return s.issueCode(ctx, email)
}

// VerifyEmail checks a submitted code. After OTPMaxAttempts wrong codes the
// stored code is discarded.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	stored, err := s.otpStore.Get(ctx, email)
	if errors.Is(err, internalRedis.ErrOTPNotFound) {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		attempts, err := s.otpStore.IncrementAttempts(ctx, email, s.settings.OTPTTL)
		if err != nil {
			return err
		}
		if attempts >= s.settings.OTPMaxAttempts {
			if err := s.otpStore.Delete(ctx, email); err != nil {
				return err
			}
			return ErrOTPAttemptsExceeded
		}
		return ErrOTPInvalid
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := s.otpStore.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete used verification code", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("email verified", zap.String("user_id", user.ID))
	return nil
}

// LoginResult contains an issued access token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login checks credentials and issues an access token. Unverified accounts
// are refused.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, _, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: s.clock.Now().Add(s.tokens.TTL()),
		User:      user,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers retrieves every user.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}

func (s *AuthService) issueCode(ctx context.Context, email string) error {
	allowed, err := s.otpStore.StartCooldown(ctx, email, s.settings.OTPCooldown)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrOTPCooldown
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.otpStore.Save(ctx, email, code, s.settings.OTPTTL); err != nil {
		return err
	}

	if s.notifier == nil {
		return nil
	}
	return s.notifier.SendVerificationCode(ctx, email, code, s.settings.OTPTTL)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
