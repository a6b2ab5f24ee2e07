// internal/models/risk.go
package models

// Risk tier labels for citywide insurance scoring.
const (
	RiskTierLow      = "Low"
	RiskTierMedium   = "Medium"
	RiskTierHigh     = "High"
	RiskTierCritical = "Critical"
)

// ClampScore bounds a risk score to [0, 100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RiskTierFor maps a clamped risk score to its underwriting tier.
// Low 0-25, Medium 26-50, High 51-75, Critical 76-100.
func RiskTierFor(score float64) string {
	switch {
	case score <= 25:
		return RiskTierLow
	case score <= 50:
		return RiskTierMedium
	case score <= 75:
		return RiskTierHigh
	default:
		return RiskTierCritical
	}
}
