package util

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "approver", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "approver", claims.Role)
}

func TestParseJWTRejects(t *testing.T) {
	token, err := GenerateJWT(42, "member", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "another-secret-value")
	assert.Error(t, err)

	claims := Claims{UserID: 42, Role: "member", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseJWT("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", ExtractToken(req))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

type sendErr struct{ temp bool }

func (e *sendErr) Error() string { return "send failed" }
func (e *sendErr) IsTemp() bool  { return e.temp }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		label     string
	}{
		{"nil", nil, false, ""},
		{"smtp 421", fmt.Errorf("send: %w", &textproto.Error{Code: 421, Msg: "try later"}), true, "smtp_transient"},
		{"smtp 550", &textproto.Error{Code: 550, Msg: "no such user"}, false, "smtp_rejected"},
		{"send temp", fmt.Errorf("smtp send: %w", &sendErr{temp: true}), true, "smtp_transient"},
		{"send permanent", &sendErr{}, false, "smtp_rejected"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"refused", errors.New("dial tcp: connection refused"), true, "network_error"},
		{"other", errors.New("boom"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, label := IsRetryableError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "dedup:notification:abc", DedupKey("notification", "abc"))
}
