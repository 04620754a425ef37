package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okValidator(claims *Claims) TokenValidator {
	return func(token string) (*Claims, error) { return claims, nil }
}

func failValidator() TokenValidator {
	return func(token string) (*Claims, error) { return nil, errors.New("bad token") }
}

func staticRevocation(revoked bool, err error) RevocationChecker {
	return func(ctx context.Context, token string) (bool, error) { return revoked, err }
}

func doAuth(t *testing.T, validate TokenValidator, revoked RevocationChecker, header string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()

	Auth(validate, revoked)(next).ServeHTTP(rec, req)
	return rec, captured
}

func authMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestAuth_Success(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	claims := &Claims{UserID: "user-123", Email: "alice@example.com", ExpiresAt: expiresAt}

	rec, captured := doAuth(t, okValidator(claims), staticRevocation(false, nil), "Bearer good.token")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-123", UserIDFromContext(captured.Context()))
	assert.Equal(t, "alice@example.com", EmailFromContext(captured.Context()))
	assert.Equal(t, "good.token", TokenFromContext(captured.Context()))
	assert.Equal(t, expiresAt, TokenExpiryFromContext(captured.Context()))
}

func TestAuth_MissingHeader(t *testing.T) {
	rec, captured := doAuth(t, okValidator(&Claims{}), staticRevocation(false, nil), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization header", authMessage(t, rec))
	assert.Nil(t, captured)
}

func TestAuth_MalformedHeader(t *testing.T) {
	for _, header := range []string{"good.token", "Basic abc123", "Bearer "} {
		rec, captured := doAuth(t, okValidator(&Claims{}), staticRevocation(false, nil), header)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Equal(t, "invalid authorization header format", authMessage(t, rec))
		assert.Nil(t, captured)
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	rec, captured := doAuth(t, okValidator(&Claims{}), staticRevocation(true, nil), "Bearer revoked.token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session ended, please log in again", authMessage(t, rec))
	assert.Nil(t, captured)
}

func TestAuth_LedgerErrorFailsClosed(t *testing.T) {
	rec, captured := doAuth(t, okValidator(&Claims{}), staticRevocation(false, errors.New("redis down")), "Bearer good.token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuth_InvalidToken(t *testing.T) {
	rec, captured := doAuth(t, failValidator(), staticRevocation(false, nil), "Bearer bad.token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", authMessage(t, rec))
	assert.Nil(t, captured)
}

func TestAuth_RevocationCheckedBeforeValidation(t *testing.T) {
	// A revoked token is rejected by the ledger even if it would also fail
	// validation; the ledger answer comes first.
	rec, _ := doAuth(t, failValidator(), staticRevocation(true, nil), "Bearer revoked.token")

	assert.Equal(t, "session ended, please log in again", authMessage(t, rec))
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	claims := &Claims{UserID: "user-123", ExpiresAt: time.Now().Add(time.Hour)}
	rec, _ := doAuth(t, okValidator(claims), staticRevocation(false, nil), "bearer good.token")

	assert.Equal(t, http.StatusOK, rec.Code)
}
