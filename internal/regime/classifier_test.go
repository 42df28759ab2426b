package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TradePulse/internal/domain/models"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		adx  float64
		chop float64
		want models.Regime
	}{
		{"strong trend", 30, 40, models.RegimeTrend},
		{"trend at boundary adx", 25, 40, models.RegimeUncertain},
		{"trend blocked by chop", 30, 55, models.RegimeUncertain},
		{"range", 30, 70, models.RegimeRange},
		{"range regardless of adx", 50, 65, models.RegimeRange},
		{"range boundary exclusive", 10, 61.8, models.RegimeUncertain},
		{"dead market", 5, 55, models.RegimeUncertain},
		{"zero adx fallback", 0, 40, models.RegimeUncertain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.adx, tc.chop, th)
			assert.Equal(t, tc.want, got.Regime)
			assert.Equal(t, tc.adx, got.ADX)
			assert.Equal(t, tc.chop, got.Choppiness)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	th := DefaultThresholds()
	a := Classify(27.3, 44.1, th)
	b := Classify(27.3, 44.1, th)
	assert.Equal(t, a, b)
}
