// Package imc computes the body mass index and its diagnostic band.
package imc

// Band boundaries are lower-inclusive: a BMI exactly on a boundary belongs
// to the upper band (25.0 is overweight, 24.999 is normal).
const (
	boundModerateThinness = 16
	boundMildThinness     = 17
	boundNormal           = 18.5
	boundOverweight       = 25
	boundObesityI         = 30
	boundObesityII        = 35
	boundObesityIII       = 40
)

// Compute returns weight(kg) / height(m)^2. ok is false when height is zero
// or negative; callers must not surface a BMI in that case.
func Compute(weightKg float64, heightM float64) (float64, bool) {
	if heightM <= 0 {
		return 0, false
	}
	return weightKg / (heightM * heightM), true
}

// Diagnose maps a BMI value to its fixed natural-language message.
func Diagnose(bmi float64) string {
	switch {
	case bmi < boundModerateThinness:
		return "Severe thinness: a medical consultation is strongly recommended."
	case bmi < boundMildThinness:
		return "Moderate thinness: consider a supervised nutrition plan."
	case bmi < boundNormal:
		return "Mild thinness: slightly below the healthy range."
	case bmi < boundOverweight:
		return "Normal: your weight is within the healthy range."
	case bmi < boundObesityI:
		return "Overweight: regular exercise and a balanced diet are recommended."
	case bmi < boundObesityII:
		return "Obesity class I: a training and nutrition plan is recommended."
	case bmi < boundObesityIII:
		return "Obesity class II: a supervised health plan is recommended."
	default:
		return "Obesity class III: a medical consultation is strongly recommended."
	}
}

// NormalizeHeight converts centimeter input to meters. Registration forms
// capture meters while profile edits capture centimeters; the stored value
// is always meters, so anything above 3 is assumed to be centimeters.
func NormalizeHeight(height float64) float64 {
	if height > 3 {
		return height / 100
	}
	return height
}
