package domain

const (
	FormatValid   = "valid"
	FormatUnknown = "unknown"

	ReasonNotExtracted = "not extracted"
)

// ValidationOutcome records the structural check of one extracted field.
// Valid is nil when the field was not present to validate.
type ValidationOutcome struct {
	Valid  *bool  `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Format string `json:"format,omitempty"`
	Value  string `json:"value,omitempty"`
}

func ValidOutcome(format, value string) ValidationOutcome {
	valid := true
	return ValidationOutcome{Valid: &valid, Format: format, Value: value}
}

func InvalidOutcome(reason, value string) ValidationOutcome {
	valid := false
	return ValidationOutcome{Valid: &valid, Reason: reason, Value: value}
}

func UncheckedOutcome(reason string) ValidationOutcome {
	return ValidationOutcome{Reason: reason}
}

// IsValid is true only for an explicit positive check.
func (o ValidationOutcome) IsValid() bool {
	return o.Valid != nil && *o.Valid
}

func (o ValidationOutcome) Checked() bool {
	return o.Valid != nil
}

// ValidationResults holds exactly the two fields the validator checks.
type ValidationResults struct {
	IdentificationNumber ValidationOutcome `json:"identification_number"`
	Pincode              ValidationOutcome `json:"pincode"`
}
