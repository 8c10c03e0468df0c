package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/companyhub/company-api/internal/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenStore tracks issued tokens server-side so logout can revoke every
// token a user holds, not just the one presented.
type TokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Issuer creates bearer tokens and manages their revocation. Tokens are
// PASETO v4.local (symmetric XChaCha20-Poly1305); a hash of each issued
// token is registered in the TokenStore with matching TTL.
type Issuer struct {
	symmetricKey paseto.V4SymmetricKey
	store        TokenStore
	duration     time.Duration
}

func NewIssuer(symmetricKey []byte, store TokenStore, duration time.Duration) (*Issuer, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &Issuer{
		symmetricKey: key,
		store:        store,
		duration:     duration,
	}, nil
}

// Issue creates an access token for the user and registers it for
// revocation tracking.
func (i *Issuer) Issue(ctx context.Context, u *user.User) (string, error) {
	now := time.Now()
	expiresAt := now.Add(i.duration)

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(expiresAt)
	token.SetString("user_id", u.ID.String())
	token.SetString("email", u.Email)

	encrypted := token.V4Encrypt(i.symmetricKey, nil)

	if err := i.store.Store(ctx, u.ID, hashToken(encrypted), expiresAt); err != nil {
		return "", fmt.Errorf("failed to register token: %w", err)
	}

	return encrypted, nil
}

// Verify validates a presented token and checks it has not been revoked.
func (i *Issuer) Verify(ctx context.Context, tokenStr string) (*TokenClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(i.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	// Revoked or never-issued tokens fail even when the ciphertext is valid
	known, err := i.store.Exists(ctx, hashToken(tokenStr))
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if !known {
		return nil, ErrInvalidToken
	}

	userID, err := token.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    userID,
		Email:     email,
		ExpiresAt: expiresAt,
	}, nil
}

// RevokeAll invalidates every token issued to the user.
func (i *Issuer) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return i.store.RevokeAll(ctx, userID)
}

// hashToken returns the hex SHA-256 of a token; only hashes are stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
