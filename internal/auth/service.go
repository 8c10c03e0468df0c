package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/companyhub/company-api/internal/logging"
	"github.com/companyhub/company-api/internal/sanitize"
	"github.com/companyhub/company-api/internal/user"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and wrong
	// account status alike, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
)

// otpTTL is the fixed lifetime of a one-time code.
const otpTTL = 5 * time.Minute

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// UserStore is the read side of the credential store.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// RegistrationStore is the write side: user creation and OTP lifecycle.
// Implementations must make each multi-row operation atomic.
type RegistrationStore interface {
	CreateUserWithOTP(ctx context.Context, u *user.User, code string, expiresAt time.Time) (*user.User, error)
	ReplaceOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	LatestOTP(ctx context.Context, userID uuid.UUID) (*OTP, error)
	ActivateUser(ctx context.Context, userID uuid.UUID, otpID int64) error
}

// Notifier delivers the one-time code to the user.
type Notifier interface {
	SendOTPEmail(ctx context.Context, toEmail, toName, code string) error
}

// Service handles the registration and authentication state machine.
type Service struct {
	users    UserStore
	store    RegistrationStore
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(users UserStore, store RegistrationStore, notifier Notifier, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput carries the already-validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
}

// Register creates a pending user together with its first one-time code and
// dispatches the code by mail. The address is stripped of any markup before
// it is stored; the status is always pending no matter what the caller sent.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	newUser := &user.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Status:       user.StatusPending,
		Address:      sanitize.Purify(input.Address),
	}

	created, err := s.store.CreateUserWithOTP(ctx, newUser, code, s.now().Add(otpTTL))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.dispatchOTPEmail(created, code)

	return created, nil
}

// IssueOTP replaces every outstanding code for the user with a fresh one
// and dispatches it. Prior codes are gone afterwards, expired or not.
func (s *Service) IssueOTP(ctx context.Context, u *user.User) error {
	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.store.ReplaceOTP(ctx, u.ID, code, s.now().Add(otpTTL)); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	s.dispatchOTPEmail(u, code)

	return nil
}

// ResendOTP re-issues a code for a pending user after checking the same
// credential gate as verification.
func (s *Service) ResendOTP(ctx context.Context, email, password string) error {
	u, err := s.pendingUser(ctx, email, password)
	if err != nil {
		return err
	}

	return s.IssueOTP(ctx, u)
}

// VerifyRegistration checks credentials and the submitted code, then
// atomically activates the user and consumes the code. A code can be
// consumed at most once: concurrent attempts race on the store and the
// loser gets ErrInvalidOTP.
func (s *Service) VerifyRegistration(ctx context.Context, email, password, code string) (*user.User, error) {
	u, err := s.pendingUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	otp, err := s.store.LatestOTP(ctx, u.ID)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to get latest otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, ErrInvalidOTP
	}

	if s.now().After(otp.ExpiresAt) {
		return nil, ErrOTPExpired
	}

	if err := s.store.ActivateUser(ctx, u.ID, otp.ID); err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			// Consumed by a concurrent verification
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}

	u.Status = user.StatusActive
	return u, nil
}

// Authenticate validates login credentials for an active account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.Status != user.StatusActive || !s.verifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

// pendingUser applies the conflated credential gate for users that have not
// completed verification yet.
func (s *Service) pendingUser(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.Status != user.StatusPending || !s.verifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// dispatchOTPEmail sends the code in a goroutine. Delivery is best effort:
// a failure is logged and never propagated to the registration flow.
func (s *Service) dispatchOTPEmail(u *user.User, code string) {
	email, name := u.Email, u.Name
	go func() {
		// Fresh context: the request that triggered the mail may be done
		emailCtx := context.Background()
		if err := s.notifier.SendOTPEmail(emailCtx, email, name, code); err != nil {
			s.logger.Warn("failed to send otp email", "email", email, "error", err)
		}
	}()
}

// generateOTPCode draws a uniform six digit code from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashPassword creates an argon2id hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks if a password matches the stored hash
func (s *Service) verifyPassword(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		iterations,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}
