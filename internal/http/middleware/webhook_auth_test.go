package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callWithAuth(t *testing.T, secret, header string) int {
	t.Helper()
	mw := FulfillmentAuth(secret)
	req := httptest.NewRequest(http.MethodPost, "/fulfillment", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, req)
	return rec.Code
}

func TestFulfillmentAuthSharedSecret(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, callWithAuth(t, "s3cret", "Bearer s3cret"))
}

func TestFulfillmentAuthHMACToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "dialogflow",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, callWithAuth(t, "s3cret", "Bearer "+signed))
}

func TestFulfillmentAuthRejects(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, callWithAuth(t, "s3cret", ""))
	assert.Equal(t, http.StatusUnauthorized, callWithAuth(t, "s3cret", "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, callWithAuth(t, "", "Bearer anything"))
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	mw := RateLimit(1, 2)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", nil)
		req.Header.Set("X-Real-Ip", "10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitIsolatesClients(t *testing.T) {
	mw := RateLimit(1, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", nil)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "first request from %s", ip)
	}
}
