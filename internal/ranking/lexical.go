package ranking

import "strings"

// DefaultBoostWeight caps the lexical boost at a tenth of a perfect cosine match.
const DefaultBoostWeight = 0.1

// Boost scores how closely a job title matches the joined role string, in [0, weight].
// It is exactly zero when roles is blank.
func Boost(title, roles string, weight float64) float64 {
	if strings.TrimSpace(roles) == "" || weight <= 0 {
		return 0
	}
	score := WRatio(Process(title), Process(roles))
	return score / 100 * weight
}
