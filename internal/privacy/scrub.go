package privacy

import "regexp"

// Placeholder tokens written in place of detected PII.
const (
	EmailPlaceholder    = "[EMAIL REMOVED]"
	PhonePlaceholder    = "[PHONE REMOVED]"
	IDPlaceholder       = "[ID REMOVED]"
	EmployeePlaceholder = "[EMP# REMOVED]"
	NamePlaceholder     = "[NAME REMOVED]"
)

// Rule replaces every match of Pattern with Replacement.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultRules is the heuristic PII rule set, applied in order.
// None of the placeholders can be matched by any rule, which keeps scrubbing idempotent.
var DefaultRules = []Rule{
	{
		Name:        "email",
		Pattern:     regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		Replacement: EmailPlaceholder,
	},
	{
		// Country code 27 or a leading 0, then a 6/7/8 mobile prefix and eight digits.
		Name:        "phone",
		Pattern:     regexp.MustCompile(`(\+?27|0)[6-8][0-9]{8}`),
		Replacement: PhonePlaceholder,
	},
	{
		Name:        "national_id",
		Pattern:     regexp.MustCompile(`\b\d{13}\b`),
		Replacement: IDPlaceholder,
	},
	{
		Name:        "employee_number",
		Pattern:     regexp.MustCompile(`\b[A-Z]{2,3}\d{4,8}\b`),
		Replacement: EmployeePlaceholder,
	},
	{
		Name:        "titled_name",
		Pattern:     regexp.MustCompile(`\b(Mr\.|Mrs\.|Ms\.|Dr\.)\s+[A-Z][a-z]+\b`),
		Replacement: NamePlaceholder,
	},
}

// Scrubber redacts PII from free text using an ordered rule list.
type Scrubber struct {
	rules []Rule
}

// NewScrubber returns a Scrubber over rules, or over DefaultRules when none are given.
func NewScrubber(rules ...Rule) *Scrubber {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Scrubber{rules: append([]Rule(nil), rules...)}
}

// With returns a copy of the scrubber with extra rules appended after the existing ones.
func (s *Scrubber) With(extra ...Rule) *Scrubber {
	rules := make([]Rule, 0, len(s.rules)+len(extra))
	rules = append(rules, s.rules...)
	rules = append(rules, extra...)
	return &Scrubber{rules: rules}
}

// Rules returns the rules in application order.
func (s *Scrubber) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Scrub replaces every PII match with its placeholder. Empty input is returned unchanged.
func (s *Scrubber) Scrub(text string) string {
	if text == "" {
		return text
	}
	for _, r := range s.rules {
		if r.Pattern == nil {
			continue
		}
		text = r.Pattern.ReplaceAllLiteralString(text, r.Replacement)
	}
	return text
}

var defaultScrubber = NewScrubber()

// Scrub redacts text with the default rule set.
func Scrub(text string) string {
	return defaultScrubber.Scrub(text)
}
