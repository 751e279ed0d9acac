package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentPending.Terminal())
	assert.True(t, PaymentSuccess.Terminal())
	assert.True(t, PaymentFailed.Terminal())
	assert.True(t, PaymentRefunded.Terminal())
}

func TestReservationExpired(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	r := Reservation{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, r.Expired(now))

	r.ExpiresAt = now
	assert.True(t, r.Expired(now))

	r.ExpiresAt = now.Add(-time.Minute)
	assert.True(t, r.Expired(now))
}
