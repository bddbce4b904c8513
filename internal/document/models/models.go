// Package models holds the data types shared across the document-check
// bounded context: the user-submitted passport form, the canonical result of
// a third-party API call, and the richer verification record that credential
// issuance later reads.
package models

import "errors"

// APIResultSource identifies which third-party API produced a result.
type APIResultSource string

const (
	SourceDCS  APIResultSource = "dcs"
	SourceDVAD APIResultSource = "dvad"
)

// ErrorStatus is a provider-signalled, non-fatal status carried on a
// ThirdPartyAPIResult. It is distinct from both success and hard errors.
type ErrorStatus string

// ErrorStatusRetry means the provider asked for the document data to be
// corrected and resubmitted by the user.
const ErrorStatusRetry ErrorStatus = "retry"

// PassportFormData is the user-declared identity and passport data for one
// verification attempt. It is immutable input owned by the caller.
type PassportFormData struct {
	Forenames      []string `json:"forenames"`
	Surname        string   `json:"surname"`
	DateOfBirth    string   `json:"dateOfBirth"` // ISO-8601 date
	PassportNumber string   `json:"passportNumber"`
	ExpiryDate     string   `json:"expiryDate"` // ISO-8601 date
	IssuingCountry string   `json:"issuingCountry"`
}

// Validate checks the fields the downstream providers cannot proceed without.
func (f PassportFormData) Validate() error {
	switch {
	case len(f.Forenames) == 0:
		return errors.New("at least one forename is required")
	case f.Surname == "":
		return errors.New("surname is required")
	case f.DateOfBirth == "":
		return errors.New("date of birth is required")
	case f.PassportNumber == "":
		return errors.New("passport number is required")
	case f.ExpiryDate == "":
		return errors.New("expiry date is required")
	}
	return nil
}

// ThirdPartyAPIResult is the canonical outcome of one provider call. It is
// produced once per verification attempt and never mutated afterwards.
type ThirdPartyAPIResult struct {
	Valid         bool
	TransactionID string
	Source        APIResultSource
	ErrorStatus   ErrorStatus // empty unless the provider signalled a status
}

// DocumentCheckResult is the verification record derived from a
// ThirdPartyAPIResult plus scoring policy. It is what gets persisted against
// the session and later turned into VC evidence.
//
// Invariant: Verified == true implies ContraIndicators and ChecksFailed are
// both empty. Construct results through the synthesizer to preserve this.
type DocumentCheckResult struct {
	Verified         bool            `json:"verified"`
	StrengthScore    int             `json:"strengthScore"`
	ValidityScore    int             `json:"validityScore"`
	ContraIndicators []string        `json:"contraIndicators,omitempty"`
	ChecksSucceeded  []string        `json:"checksSucceeded,omitempty"`
	ChecksFailed     []string        `json:"checksFailed,omitempty"`
	TransactionID    string          `json:"transactionId"`
	Source           APIResultSource `json:"source"`

	// Passport fields carried through for the credentialSubject block.
	PassportNumber string `json:"passportNumber"`
	ExpiryDate     string `json:"expiryDate"`
}

// CheckInvariants reports whether the verified-implies-clean invariant holds.
func (r DocumentCheckResult) CheckInvariants() error {
	if r.Verified && (len(r.ContraIndicators) > 0 || len(r.ChecksFailed) > 0) {
		return errors.New("verified result must not carry contra-indicators or failed checks")
	}
	return nil
}
