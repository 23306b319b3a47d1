package services

import (
	"testing"
	"time"

	"rangeapi/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateRedemption(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	code := func(mutate func(*models.AccessCode)) *models.AccessCode {
		c := &models.AccessCode{
			ExpiresAt: now.Add(time.Hour),
			MaxUses:   0,
			Uses:      0,
		}
		if mutate != nil {
			mutate(c)
		}
		return c
	}

	t.Run("valid code admits a new user", func(t *testing.T) {
		assert.NoError(t, ValidateRedemption(code(nil), false, now))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.ExpiresAt = now })
		assert.ErrorIs(t, ValidateRedemption(c, false, now), ErrCodeExpired)
	})

	t.Run("past expiry rejects even prior redeemers", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.ExpiresAt = now.Add(-time.Minute) })
		assert.ErrorIs(t, ValidateRedemption(c, true, now), ErrCodeExpired)
	})

	t.Run("swept code is expired regardless of clock", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.Expired = true })
		assert.ErrorIs(t, ValidateRedemption(c, false, now), ErrCodeExpired)
	})

	t.Run("exhausted code rejects new users", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.MaxUses = 2; c.Uses = 2 })
		assert.ErrorIs(t, ValidateRedemption(c, false, now), ErrCodeAlreadyConsumed)
	})

	t.Run("exhausted code still admits prior redeemers", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.MaxUses = 2; c.Uses = 2 })
		assert.NoError(t, ValidateRedemption(c, true, now))
	})

	t.Run("zero max uses means unlimited", func(t *testing.T) {
		c := code(func(c *models.AccessCode) { c.Uses = 10000 })
		assert.NoError(t, ValidateRedemption(c, false, now))
	})
}
