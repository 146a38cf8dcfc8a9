package stops

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stop_guard/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func policy(initial, trailing, activation string) models.PolicyConfig {
	return models.PolicyConfig{
		InitialStopPct:    d(initial),
		TrailingStopPct:   d(trailing),
		ActivationGainPct: d(activation),
	}
}
