package tests

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/service"
)

// ──────────────────────────────────────────────
// 8. REGISTRATION, EMAIL VERIFICATION & LOGIN
// ──────────────────────────────────────────────

type authFixture struct {
	users   *MockUserRepository
	otp     *MockOTPStore
	mailer  *MockMailer
	clock   *FixedClock
	authSvc *service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  NewMockUserRepository(),
		otp:    NewMockOTPStore(),
		mailer: &MockMailer{},
		clock:  NewFixedClock(T0),
	}
	notifier := service.NewNotificationService(nil, f.mailer, f.users, f.clock, zap.NewNop())
	f.authSvc = service.NewAuthService(f.users, f.otp, notifier, &MockTokenIssuer{}, service.AuthSettings{
		OTPTTL:         5 * time.Minute,
		OTPCooldown:    time.Minute,
		OTPMaxAttempts: 3,
	}, f.clock, zap.NewNop())
	return f
}

func (f *authFixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := f.authSvc.Register(t.Context(), service.RegisterRequest{
		Email: email, Password: "correct-horse", FullName: "  Lan Nguyen ",
	})
	if err != nil {
		t.Fatalf("unexpected error registering %s: %v", email, err)
	}
	return user
}

func TestRegister_CreatesUnverifiedCustomerAndMailsCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	user := f.register(t, "Lan@Example.com")

	if user.Email != "lan@example.com" {
		t.Errorf("expected normalised email, got %q", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("expected role %s, got %s", domain.RoleCustomer, user.Role)
	}
	if user.EmailVerified {
		t.Error("expected a new account to be unverified")
	}
	if user.FullName != "Lan Nguyen" {
		t.Errorf("expected trimmed name, got %q", user.FullName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Error("expected password to be hashed")
	}

	code, ok := f.otp.Code("lan@example.com")
	if !ok || len(code) != 6 {
		t.Fatalf("expected a 6-digit code to be stored, got %q", code)
	}
	if f.otp.LastTTL != 5*time.Minute {
		t.Errorf("expected code ttl 5m, got %v", f.otp.LastTTL)
	}
	msg, ok := f.mailer.Last()
	if !ok || msg.To != "lan@example.com" || !strings.Contains(msg.PlainText, code) {
		t.Errorf("expected code mailed to the user, got %+v", msg)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "taken@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"bad email", "not-an-email", "correct-horse", service.ErrInvalidEmail},
		{"display name form", "Lan <lan@example.com>", "correct-horse", service.ErrInvalidEmail},
		{"short password", "new@example.com", "short", service.ErrWeakPassword},
		{"duplicate", "TAKEN@example.com", "correct-horse", service.ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.authSvc.Register(t.Context(), service.RegisterRequest{Email: tt.email, Password: tt.password})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifyEmail_CorrectCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	user := f.register(t, "lan@example.com")
	code, _ := f.otp.Code("lan@example.com")

	if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.users.GetUser(user.ID).EmailVerified {
		t.Error("expected email to be verified")
	}
	if _, ok := f.otp.Code("lan@example.com"); ok {
		t.Error("expected used code to be deleted")
	}
	if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", code); !errors.Is(err, service.ErrEmailAlreadyVerified) {
		t.Errorf("expected ErrEmailAlreadyVerified, got %v", err)
	}
}

func TestVerifyEmail_TooManyWrongCodesBurnsCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "lan@example.com")
	code, _ := f.otp.Code("lan@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", wrong); !errors.Is(err, service.ErrOTPInvalid) {
			t.Fatalf("attempt %d: expected ErrOTPInvalid, got %v", i+1, err)
		}
	}
	if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", wrong); !errors.Is(err, service.ErrTooManyRequests) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}
	if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", code); !errors.Is(err, service.ErrOTPExpired) {
		t.Errorf("expected the burnt code to be gone, got %v", err)
	}
}

func TestSendVerificationCode_Cooldown(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "lan@example.com")

	if err := f.authSvc.SendVerificationCode(t.Context(), "lan@example.com"); !errors.Is(err, service.ErrOTPCooldown) {
		t.Errorf("expected ErrOTPCooldown right after registering, got %v", err)
	}

	f.otp.ClearCooldown("lan@example.com")
	if err := f.authSvc.SendVerificationCode(t.Context(), "lan@example.com"); err != nil {
		t.Errorf("expected a fresh code after the cooldown, got %v", err)
	}
	if err := f.authSvc.SendVerificationCode(t.Context(), "ghost@example.com"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found for unknown email, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	user := f.register(t, "lan@example.com")

	if _, err := f.authSvc.Login(t.Context(), "lan@example.com", "correct-horse"); !errors.Is(err, service.ErrEmailNotVerified) {
		t.Errorf("expected unverified login to be refused, got %v", err)
	}

	code, _ := f.otp.Code("lan@example.com")
	if err := f.authSvc.VerifyEmail(t.Context(), "lan@example.com", code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.authSvc.Login(t.Context(), " LAN@example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "token-"+user.ID {
		t.Errorf("expected issued token, got %q", result.Token)
	}
	if !result.ExpiresAt.Equal(T0.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", T0.Add(time.Hour), result.ExpiresAt)
	}

	for _, tc := range []struct{ email, password string }{
		{"lan@example.com", "wrong-password"},
		{"ghost@example.com", "correct-horse"},
		{"garbage", "correct-horse"},
	} {
		if _, err := f.authSvc.Login(t.Context(), tc.email, tc.password); !errors.Is(err, service.ErrInvalidCredentials) {
			t.Errorf("login(%q): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}
