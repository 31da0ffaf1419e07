// Package scoring computes the fairness index, confidence and risk flags for
// market-perception feedback. All functions are pure.
package scoring

// Rating categories on the 1-5 scale.
const (
	CategoryTransparency      = "transparency"
	CategoryPaymentDiscipline = "paymentDiscipline"
	CategorySupport           = "support"
	CategoryRoleIntegrity     = "roleIntegrity"
	CategoryOnboarding        = "onboarding"
	CategorySafety            = "safety"
	CategoryCompliance        = "compliance"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Ratings maps a category name to its rating.
type Ratings map[string]float64

// Categories lists the rated categories in a fixed order.
var Categories = []string{
	CategoryTransparency,
	CategoryPaymentDiscipline,
	CategorySupport,
	CategoryRoleIntegrity,
	CategoryOnboarding,
	CategorySafety,
	CategoryCompliance,
}

var weights = map[string]float64{
	CategoryTransparency:      1.5,
	CategoryPaymentDiscipline: 2.0,
	CategorySupport:           1.0,
	CategoryRoleIntegrity:     1.5,
	CategoryOnboarding:        1.0,
	CategorySafety:            2.0,
	CategoryCompliance:        1.0,
}

// Weight returns the fairness weight of a category, or 0 for unknown categories.
func Weight(category string) float64 {
	return weights[category]
}

// IsKnownCategory reports whether category is one of Categories.
func IsKnownCategory(category string) bool {
	_, ok := weights[category]
	return ok
}
