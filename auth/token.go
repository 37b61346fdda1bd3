package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates the channel token failed signature or shape checks.
	ErrInvalidToken = errors.New("invalid channel token")
	// ErrTokenUserMismatch indicates the token belongs to a different user or session.
	ErrTokenUserMismatch = errors.New("channel token does not belong to the current user")
)

// ChannelClaims is the signed payload of a channel token. A token binds
// exactly one MCP session to exactly one identity; the raw compact string is
// also the push channel name.
type ChannelClaims struct {
	UserID       string          `json:"user_id"`
	SessionID    string          `json:"session_id"`
	ClientParams json.RawMessage `json:"client_params"`
	CreatedAt    int64           `json:"created_at"`
	jwt.RegisteredClaims
}

// TokenSigner signs and validates channel tokens with a symmetric HMAC-SHA256 key.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner creates a signer over the supplied HMAC key.
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{secret: secret}
}

// CreateChannelToken mints a token binding the user to the client params
// captured at initialize.
func (s *TokenSigner) CreateChannelToken(user *CurrentUser, clientParams json.RawMessage) (string, error) {
	claims := &ChannelClaims{
		UserID:       user.UserID,
		SessionID:    user.SessionID,
		ClientParams: clientParams,
		CreatedAt:    time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign channel token: %w", err)
	}
	return signed, nil
}

// ValidateChannelToken checks the signature and that the token was minted for
// the supplied user's identity and session.
func (s *TokenSigner) ValidateChannelToken(user *CurrentUser, token string) (*ChannelClaims, error) {
	claims := &ChannelClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID != user.UserID || claims.SessionID != user.SessionID {
		return nil, ErrTokenUserMismatch
	}
	return claims, nil
}

// ClientParams returns the initialize params captured in the token, or an
// error when the token does not validate against the user.
func (s *TokenSigner) ClientParams(user *CurrentUser, token string) (json.RawMessage, error) {
	claims, err := s.ValidateChannelToken(user, token)
	if err != nil {
		return nil, err
	}
	return claims.ClientParams, nil
}
