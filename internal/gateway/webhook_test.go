package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	key := []byte("webhook-key")
	body := []byte(`{"transaction_id":"tx-123","outcome":"success"}`)

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature(body, signature, key))
	assert.False(t, VerifySignature([]byte(`{"tampered":true}`), signature, key))
	assert.False(t, VerifySignature(body, signature, []byte("other-key")))
	assert.False(t, VerifySignature(body, "not-a-signature", key))
}

func TestSharedSecret(t *testing.T) {
	hash, err := HashSharedSecret("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, VerifySharedSecret(hash, "s3cret"))
	assert.False(t, VerifySharedSecret(hash, "wrong"))
	assert.False(t, VerifySharedSecret("not-a-hash", "s3cret"))
}
