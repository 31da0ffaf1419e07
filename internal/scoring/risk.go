package scoring

import "slices"

// Tags that raise a risk flag on their own.
const (
	TagLatePayment       = "Late payment"
	TagUnsafeEnvironment = "Unsafe environment"
	TagRoleChanged       = "Role changed"
	TagEarlyTermination  = "Early termination"
)

const (
	paymentRiskBelow = 2.5
	safetyRiskBelow  = 3.0
	scopeCreepBelow  = 2.0
)

// RiskFlags are independent risk indicators derived from one set of ratings and tags.
type RiskFlags struct {
	PaymentRisk      bool `json:"paymentRisk"`
	SafetyRisk       bool `json:"safetyRisk"`
	ScopeCreep       bool `json:"scopeCreep"`
	EarlyTermination bool `json:"earlyTermination"`
}

// Any reports whether at least one flag is raised.
func (f RiskFlags) Any() bool {
	return f.PaymentRisk || f.SafetyRisk || f.ScopeCreep || f.EarlyTermination
}

// DetectRiskFlags evaluates the risk flags. A missing rating counts as MaxRating, so absent
// data never raises a flag. Early termination comes from tags only.
func DetectRiskFlags(ratings Ratings, tags []string) RiskFlags {
	return RiskFlags{
		PaymentRisk:      ratingOrMax(ratings, CategoryPaymentDiscipline) < paymentRiskBelow || slices.Contains(tags, TagLatePayment),
		SafetyRisk:       ratingOrMax(ratings, CategorySafety) < safetyRiskBelow || slices.Contains(tags, TagUnsafeEnvironment),
		ScopeCreep:       ratingOrMax(ratings, CategoryRoleIntegrity) < scopeCreepBelow || slices.Contains(tags, TagRoleChanged),
		EarlyTermination: slices.Contains(tags, TagEarlyTermination),
	}
}

func ratingOrMax(ratings Ratings, category string) float64 {
	if v, ok := ratings[category]; ok && v > 0 {
		return v
	}
	return MaxRating
}
