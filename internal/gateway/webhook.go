package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// VerifySignature checks the provider's HMAC-SHA256 signature over the
// raw webhook body.
func VerifySignature(body []byte, signature string, key []byte) bool {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifySharedSecret compares a bcrypt hash of the webhook shared secret
// against the secret presented by the caller. The hash lives in config so
// the plain secret is never stored on our side.
func VerifySharedSecret(storedHash, presented string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented)) == nil
}

// HashSharedSecret produces the bcrypt hash to put in configuration.
func HashSharedSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
