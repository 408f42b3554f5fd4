package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var period = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestConfig_Key(t *testing.T) {
	tests := []struct {
		reset ResetPeriod
		want  string
	}{
		{ResetYearly, "GRN_2025"},
		{ResetMonthly, "GRN_2025_06"},
		{ResetNever, "GRN"},
		{"", "GRN"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reset), func(t *testing.T) {
			cfg := Config{Prefix: "GRN", ResetPeriod: tt.reset}
			assert.Equal(t, tt.want, cfg.Key(period))
		})
	}
}

func TestConfig_Format(t *testing.T) {
	assert.Equal(t, "GRN-2025-00007", DefaultConfig("GRN").Format(period, 7))
	assert.Equal(t, "GRN-042", Config{Prefix: "GRN", PadWidth: 3}.Format(period, 42))
	assert.Equal(t, "GRN-123456", Config{Prefix: "GRN"}.Format(period, 123456))
}

func TestOptions_EffectiveRangeSize(t *testing.T) {
	var nilOpts *Options
	assert.EqualValues(t, 50, nilOpts.EffectiveRangeSize())
	assert.EqualValues(t, 50, (&Options{}).EffectiveRangeSize())
	assert.EqualValues(t, 10, (&Options{RangeSize: 10}).EffectiveRangeSize())
}

func TestMockGenerator_Default(t *testing.T) {
	num, err := (&MockGenerator{}).GetNextNumber(context.Background(), DefaultConfig("GRN"), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "GRN-2025-00001", num)
}
