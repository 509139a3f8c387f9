package constants

// Category is the closed set of grievance domains.
type Category string

const (
	RoadTransport   Category = "Road & Transport"
	WaterSupply     Category = "Water Supply"
	Electricity     Category = "Electricity"
	Sanitation      Category = "Sanitation"
	HealthSafety    Category = "Health & Safety"
	FraudLegal      Category = "Fraud / Legal"
	GovServiceDelay Category = "Government Service Delay"
	Other           Category = "Other"
)

// Categories is the enumeration in match order. The order is part of the
// external contract: the first category whose keyword set matches wins.
var Categories = []Category{
	RoadTransport,
	WaterSupply,
	Electricity,
	Sanitation,
	HealthSafety,
	FraudLegal,
	GovServiceDelay,
	Other,
}

// CategoryKeywords holds the lowercase substrings that map free text onto a
// category. Other carries no keywords; it is the fallback.
var CategoryKeywords = map[Category][]string{
	RoadTransport:   {"road", "pothole", "traffic", "street", "bridge"},
	WaterSupply:     {"water", "pipeline", "tap", "sewage"},
	Electricity:     {"electricity", "power", "transformer", "light", "voltage"},
	Sanitation:      {"garbage", "cleaning", "toilet", "waste"},
	HealthSafety:    {"injury", "hospital", "health", "emergency", "danger"},
	FraudLegal:      {"fraud", "scam", "unauthorized", "threat", "harass"},
	GovServiceDelay: {"delay", "pending", "no response", "late"},
}

func AsStringSlice() []string {
	result := make([]string, len(Categories))
	for i, cat := range Categories {
		result[i] = string(cat)
	}
	return result
}

// IsCategory reports whether input is one of the enumerated labels.
func IsCategory(input string) bool {
	for _, cat := range Categories {
		if input == string(cat) {
			return true
		}
	}
	return false
}
