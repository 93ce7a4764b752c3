package imc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	t.Run("computes weight over height squared", func(t *testing.T) {
		bmi, ok := Compute(80, 2)
		require.True(t, ok)
		require.InDelta(t, 20.0, bmi, 0.0001)
	})

	t.Run("rejects zero height", func(t *testing.T) {
		_, ok := Compute(80, 0)
		require.False(t, ok)
	})

	t.Run("rejects negative height", func(t *testing.T) {
		_, ok := Compute(80, -1.7)
		require.False(t, ok)
	})
}

func TestDiagnoseBandBoundaries(t *testing.T) {
	t.Parallel()

	// Boundaries are lower-inclusive: the value at the boundary takes the
	// upper band's message, the value just below takes the lower band's.
	cases := []struct {
		bmi  float64
		want string
	}{
		{15.999, "Severe thinness: a medical consultation is strongly recommended."},
		{16, "Moderate thinness: consider a supervised nutrition plan."},
		{16.999, "Moderate thinness: consider a supervised nutrition plan."},
		{17, "Mild thinness: slightly below the healthy range."},
		{18.499, "Mild thinness: slightly below the healthy range."},
		{18.5, "Normal: your weight is within the healthy range."},
		{24.999, "Normal: your weight is within the healthy range."},
		{25, "Overweight: regular exercise and a balanced diet are recommended."},
		{29.999, "Overweight: regular exercise and a balanced diet are recommended."},
		{30, "Obesity class I: a training and nutrition plan is recommended."},
		{34.999, "Obesity class I: a training and nutrition plan is recommended."},
		{35, "Obesity class II: a supervised health plan is recommended."},
		{39.999, "Obesity class II: a supervised health plan is recommended."},
		{40, "Obesity class III: a medical consultation is strongly recommended."},
		{55, "Obesity class III: a medical consultation is strongly recommended."},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Diagnose(tc.bmi), "bmi=%v", tc.bmi)
	}
}

func TestNormalizeHeight(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.75, NormalizeHeight(175), 0.0001)
	require.InDelta(t, 1.75, NormalizeHeight(1.75), 0.0001)
	require.InDelta(t, 3.0, NormalizeHeight(3.0), 0.0001)
}
