package utils

import "errors"

const (
	BMIUnderweight = "Underweight"
	BMINormal      = "Normal"
	BMIOverweight  = "Overweight"
	BMIObese       = "Obese"
)

// CalculateBMI expects height in centimeters and weight in kilograms.
// The result is rounded to two decimals.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	// Sanity checks to avoid garbage input
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0, errors.New("height/weight out of plausible range")
	}

	h := heightCm / 100.0 // to meters
	return Round2(weightKg / (h * h)), nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 24.9:
		return BMINormal
	case bmi < 29.9:
		return BMIOverweight
	default:
		return BMIObese
	}
}
