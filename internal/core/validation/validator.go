// Package validation checks extracted identifiers against the structural
// formats of Indian business registrations. Checks are pure pattern matches;
// nothing is looked up against a live registry.
package validation

import (
	"regexp"
	"strings"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

var (
	gstinPattern   = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z]\dZ[A-Z\d]$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	cinPattern     = regexp.MustCompile(`^[UL]\d{5}[A-Z]{2}\d{4}[A-Z]{3}\d{6}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// Rule is a named, anchored structural check.
type Rule struct {
	Name      string
	pattern   *regexp.Regexp
	uppercase bool
	reason    string
}

// Identifier and postal code rules. Identifier checks are case-insensitive;
// values are upper-cased before matching.
var (
	GSTIN   = Rule{Name: "GSTIN", pattern: gstinPattern, uppercase: true, reason: "invalid GSTIN format"}
	PAN     = Rule{Name: "PAN", pattern: panPattern, uppercase: true, reason: "invalid PAN format"}
	CIN     = Rule{Name: "CIN", pattern: cinPattern, uppercase: true, reason: "invalid CIN format"}
	Pincode = Rule{Name: "pincode", pattern: pincodePattern, reason: "invalid format"}
)

// identifierRules decides which format a document's primary identifier must follow.
// Types without an entry accept any non-empty identifier.
var identifierRules = map[domain.DocumentType]Rule{
	domain.DocumentTypeGSTCertificate:    GSTIN,
	domain.DocumentTypePANCard:           PAN,
	domain.DocumentTypeIncorporationCert: CIN,
}

// RuleFor returns the identifier rule for a document type, if one is defined.
func RuleFor(docType domain.DocumentType) (Rule, bool) {
	rule, ok := identifierRules[docType]
	return rule, ok
}

func (r Rule) normalize(value string) string {
	value = strings.TrimSpace(value)
	if r.uppercase {
		value = strings.ToUpper(value)
	}
	return value
}

// Check validates a single value. An empty value is reported invalid, not absent:
// callers that need the absent case handle it before calling Check.
func (r Rule) Check(value string) domain.ValidationOutcome {
	normalized := r.normalize(value)
	if normalized == "" {
		return domain.InvalidOutcome(r.Name+" is empty", "")
	}
	if !r.pattern.MatchString(normalized) {
		return domain.InvalidOutcome(r.reason, normalized)
	}
	return domain.ValidOutcome(domain.FormatValid, normalized)
}

// ValidateGSTIN checks a 15-character GST identification number.
func ValidateGSTIN(value string) domain.ValidationOutcome { return GSTIN.Check(value) }

// ValidatePAN checks a 10-character permanent account number.
func ValidatePAN(value string) domain.ValidationOutcome { return PAN.Check(value) }

// ValidateCIN checks a 21-character corporate identification number.
func ValidateCIN(value string) domain.ValidationOutcome { return CIN.Check(value) }

// ValidatePincode checks a six-digit postal code.
func ValidatePincode(value string) domain.ValidationOutcome { return Pincode.Check(value) }

// ValidateIdentifier checks the primary identifier according to the document type.
func ValidateIdentifier(docType domain.DocumentType, identificationNumber *string) domain.ValidationOutcome {
	if isBlank(identificationNumber) {
		return domain.InvalidOutcome(domain.ReasonNotExtracted, "")
	}
	rule, ok := RuleFor(docType)
	if !ok {
		return domain.ValidOutcome(domain.FormatUnknown, strings.ToUpper(strings.TrimSpace(*identificationNumber)))
	}
	return rule.Check(*identificationNumber)
}

// ValidatePostalCode distinguishes "not extracted" (unchecked) from a failed check.
func ValidatePostalCode(pincode *string) domain.ValidationOutcome {
	if isBlank(pincode) {
		return domain.UncheckedOutcome(domain.ReasonNotExtracted)
	}
	return Pincode.Check(*pincode)
}

// ValidateExtraction produces the per-field results for one extraction.
func ValidateExtraction(docType domain.DocumentType, identificationNumber, pincode *string) domain.ValidationResults {
	return domain.ValidationResults{
		IdentificationNumber: ValidateIdentifier(docType, identificationNumber),
		Pincode:              ValidatePostalCode(pincode),
	}
}

// isBlank treats the literal "null" as missing, matching completeness scoring.
func isBlank(value *string) bool {
	return domain.OptionalString(value) == nil
}
