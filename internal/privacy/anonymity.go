package privacy

// K-anonymity thresholds. Aggregates need AggregateThreshold distinct submissions,
// any individual free-text excerpt needs FreeTextThreshold.
const (
	AggregateThreshold = 5
	FreeTextThreshold  = 10
)

// Gate releases data only when the sample size reaches Threshold.
type Gate struct {
	Threshold int
}

var (
	AggregateGate = Gate{Threshold: AggregateThreshold}
	FreeTextGate  = Gate{Threshold: FreeTextThreshold}
)

// Allows reports whether sampleSize distinct submissions are enough to release.
func (g Gate) Allows(sampleSize int) bool {
	return sampleSize >= g.Threshold
}

// Released is the outcome of a gate check. Data is nil whenever Released is false.
type Released[T any] struct {
	Released   bool `json:"released"`
	Data       *T   `json:"data,omitempty"`
	SampleSize int  `json:"sampleSize"`
}

// Value returns the released data and whether it was released.
func (r Released[T]) Value() (T, bool) {
	var zero T
	if !r.Released || r.Data == nil {
		return zero, false
	}
	return *r.Data, true
}

// Enforce applies g to data. Below the threshold the data is withheld entirely.
func Enforce[T any](g Gate, sampleSize int, data T) Released[T] {
	if !g.Allows(sampleSize) {
		return Released[T]{Released: false, SampleSize: sampleSize}
	}
	return Released[T]{Released: true, Data: &data, SampleSize: sampleSize}
}

// EnforceThreshold applies the aggregate threshold.
func EnforceThreshold[T any](sampleSize int, data T) Released[T] {
	return Enforce(AggregateGate, sampleSize, data)
}

// CanShowFreeText reports whether individual excerpts may be shown for sampleSize submissions.
func CanShowFreeText(sampleSize int) bool {
	return FreeTextGate.Allows(sampleSize)
}
