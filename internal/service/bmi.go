package service

import (
	"errors"
	"math"
)

// ErrInvalidBMIInput 体重或身高不是正数时返回
var ErrInvalidBMIInput = errors.New("weight and height must be positive")

// CalculateBMI 按体重（kg）与身高（cm）计算 BMI
func CalculateBMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 || math.IsNaN(weightKg) || math.IsNaN(heightCm) || math.IsInf(weightKg, 0) || math.IsInf(heightCm, 0) {
		return 0, ErrInvalidBMIInput
	}

	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

// BMICategory 返回 WHO 分级
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}
