package auth

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"))
	user := &CurrentUser{UserID: "user-1", SessionID: "sid-1"}
	clientParams := json.RawMessage(`{"protocolVersion":"2025-03-26","clientInfo":{"name":"client"}}`)

	token, err := signer.CreateChannelToken(user, clientParams)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := signer.ValidateChannelToken(user, token)
	assert.NoError(t, err)
	assert.EqualValues(t, "user-1", claims.UserID)
	assert.EqualValues(t, "sid-1", claims.SessionID)
	assert.NotZero(t, claims.CreatedAt)

	params, err := signer.ClientParams(user, token)
	assert.NoError(t, err)
	assert.JSONEq(t, string(clientParams), string(params))
}

func TestTokenSigner_RejectsOtherIdentity(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"))
	user := &CurrentUser{UserID: "user-1", SessionID: "sid-1"}
	token, err := signer.CreateChannelToken(user, nil)
	assert.NoError(t, err)

	tests := []struct {
		name string
		user *CurrentUser
	}{
		{name: "different user", user: &CurrentUser{UserID: "user-2", SessionID: "sid-1"}},
		{name: "different session", user: &CurrentUser{UserID: "user-1", SessionID: "sid-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.ValidateChannelToken(tt.user, token)
			assert.ErrorIs(t, err, ErrTokenUserMismatch)
		})
	}
}

func TestTokenSigner_RejectsTampering(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"))
	user := &CurrentUser{UserID: "user-1", SessionID: "sid-1"}
	token, err := signer.CreateChannelToken(user, nil)
	assert.NoError(t, err)

	// flip the signature segment
	segments := strings.Split(token, ".")
	assert.Len(t, segments, 3)
	segments[2] = "AAAA" + segments[2][4:]
	_, err = signer.ValidateChannelToken(user, strings.Join(segments, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherSigner := NewTokenSigner([]byte("other-secret"))
	_, err = otherSigner.ValidateChannelToken(user, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
