package constants

// Tier is the priority bucket derived from a numeric urgency score.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Tiers in descending urgency, the order summaries are displayed in.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

// Score thresholds for the tier ladder. Boundary values belong to the
// higher tier: 50 is High, 20 is Medium.
const (
	HighThreshold   = 50
	MediumThreshold = 20
)

// TierForScore maps a score onto its tier, evaluated high to low.
func TierForScore(score int) Tier {
	switch {
	case score >= HighThreshold:
		return TierHigh
	case score >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
