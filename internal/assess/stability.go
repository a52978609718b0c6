package assess

import (
	"regexp"
	"strings"
)

// Stability risk labels.
const (
	RiskLow       = "Low"
	RiskLowMedium = "Low-Medium"
	RiskMedium    = "Medium"
	RiskHigh      = "High"
)

// yearRangeRe matches employment spans like "2019-2022" or "2021 - present".
// Many short spans indicate job hopping.
var yearRangeRe = regexp.MustCompile(`\b(20[0-2][0-9])\s*[-–]\s*(20[0-2][0-9]|present|current)\b`)

const hopPenaltyThreshold = 6

// StabilityScore estimates tenure stability from resume text alone: longest
// claimed tenure sets the base, a pile of dated spans pulls it down. The
// result is deterministic and independent of the external scorer.
func StabilityScore(text string, max int) (float64, string) {
	lower := strings.ToLower(text)

	score := 6.0
	risk := RiskMedium
	switch {
	case strings.Contains(lower, "10+ years"),
		strings.Contains(lower, "over 10 years"),
		strings.Contains(lower, "decade"):
		score = 10
		risk = RiskLow
	case strings.Contains(lower, "8 years"),
		strings.Contains(lower, "7 years"),
		strings.Contains(lower, "6 years"),
		strings.Contains(lower, "5+ years"):
		score = 8
		risk = RiskLowMedium
	case strings.Contains(lower, "4 years"),
		strings.Contains(lower, "3 years"):
		score = 6
		risk = RiskMedium
	}

	if spans := yearRangeRe.FindAllString(lower, -1); len(spans) >= hopPenaltyThreshold {
		if score -= 4; score < 2 {
			score = 2
		}
		risk = RiskHigh
	}

	if score > float64(max) {
		score = float64(max)
	}
	return score, risk
}
