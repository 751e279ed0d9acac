package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-booking/internal/gateway"
)

func callbackEvent(body string, headers map[string]string) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.Request = httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(body))
	e.Request.Header.Set("Content-Type", "application/json")
	e.Response = httptest.NewRecorder()
	for k, v := range headers {
		e.Request.Header.Set(k, v)
	}
	return e
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func TestCallbackRejectsBadInput(t *testing.T) {
	// The order service is never reached on these paths.
	h := NewPaymentHandler(nil, "", "", false)

	t.Run("unknown outcome is rejected, not treated as failure", func(t *testing.T) {
		err := h.Callback(callbackEvent(`{"transaction_id":"tx-1","outcome":"pending"}`, nil))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})

	t.Run("missing transaction id", func(t *testing.T) {
		err := h.Callback(callbackEvent(`{"outcome":"success"}`, nil))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})

	t.Run("malformed body", func(t *testing.T) {
		err := h.Callback(callbackEvent(`not json`, nil))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})
}

func TestCallbackSharedSecret(t *testing.T) {
	hash, err := gateway.HashSharedSecret("s3cret")
	require.NoError(t, err)
	h := NewPaymentHandler(nil, hash, "", false)

	t.Run("wrong secret", func(t *testing.T) {
		err := h.Callback(callbackEvent(`{"transaction_id":"tx-1","outcome":"pending"}`,
			map[string]string{"X-Webhook-Secret": "wrong"}))
		assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	})

	t.Run("good secret passes the check", func(t *testing.T) {
		// The unknown outcome then fails with 400, proving the secret
		// gate was cleared.
		err := h.Callback(callbackEvent(`{"transaction_id":"tx-1","outcome":"pending"}`,
			map[string]string{"X-Webhook-Secret": "s3cret"}))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})
}

func TestCallbackBodySignature(t *testing.T) {
	key := "signing-key"
	h := NewPaymentHandler(nil, "", key, false)
	body := `{"transaction_id":"tx-1","outcome":"pending"}`

	sign := func(body string) string {
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(body))
		return hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("missing signature", func(t *testing.T) {
		err := h.Callback(callbackEvent(body, nil))
		assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	})

	t.Run("signature over a different body", func(t *testing.T) {
		err := h.Callback(callbackEvent(body,
			map[string]string{"X-Webhook-Signature": sign(`{"tampered":true}`)}))
		assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	})

	t.Run("valid signature passes the check", func(t *testing.T) {
		err := h.Callback(callbackEvent(body,
			map[string]string{"X-Webhook-Signature": sign(body)}))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})
}

func TestSimulate(t *testing.T) {
	t.Run("disabled outside development", func(t *testing.T) {
		h := NewPaymentHandler(nil, "", "", false)
		err := h.Simulate(callbackEvent(`{"transaction_id":"tx-1","outcome":"success"}`, nil))
		assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
	})

	t.Run("unknown outcome is rejected", func(t *testing.T) {
		h := NewPaymentHandler(nil, "", "", true)
		err := h.Simulate(callbackEvent(`{"transaction_id":"tx-1","outcome":"oops"}`, nil))
		assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	})
}
