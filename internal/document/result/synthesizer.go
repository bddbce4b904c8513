// Package result normalizes provider-specific replies into the canonical
// document-check verification record, and owns the three-way outcome type
// that forces callers to handle success, failure, and retry explicitly.
package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"passport-cri/internal/document/models"
)

// ErrUnparseableReply is returned when a reply body matches no known provider
// schema. Unknown shapes are never silently coerced to a default.
var ErrUnparseableReply = errors.New("reply does not match any known provider schema")

// ErrProviderReported is returned when the provider's business layer reports
// an error of its own. It is non-recoverable for this attempt.
var ErrProviderReported = errors.New("provider reported an error response")

// The check every provider performs against its records.
const recordCheck = "record_check"

// ContraIndicatorDataMismatch is the contra-indicator raised when the
// document data does not match the provider's records.
const ContraIndicatorDataMismatch = "D02"

// retrySentinel is the provider's documented "please resubmit" reply body.
var retrySentinel = []byte(`{"result":"retry"}`)

// OutcomeKind tags the three-way result of synthesizing a check.
type OutcomeKind string

const (
	// OutcomeResult means a DocumentCheckResult was produced (verified or not).
	OutcomeResult OutcomeKind = "result"
	// OutcomeRetry means the caller should ask the user to resubmit corrected
	// data. It is distinct from both success and hard failure.
	OutcomeRetry OutcomeKind = "retry"
)

// Outcome is the synthesizer's tagged return value. Result is set only when
// Kind == OutcomeResult.
type Outcome struct {
	Kind   OutcomeKind
	Result *models.DocumentCheckResult
}

// dvadReply mirrors the GraphQL endpoint's {data, errors} envelope. Anything
// outside these two segments is ignored.
type dvadReply struct {
	Data   *dvadData   `json:"data"`
	Errors []dvadError `json:"errors"`
}

type dvadData struct {
	ValidatePassport *dvadValidatePassport `json:"validatePassport"`
}

type dvadValidatePassport struct {
	PassportFound    bool `json:"passportFound"`
	ValidationResult bool `json:"validationResult"`
}

type dvadError struct {
	Message string `json:"message"`
}

// dcsReply mirrors the unwrapped DCS plaintext.
type dcsReply struct {
	RequestID string `json:"requestId"`
	Valid     *bool  `json:"valid"`
	Error     bool   `json:"error"`
}

// Synthesizer maps provider replies and canonical API results into
// DocumentCheckResults under a per-source scoring policy.
type Synthesizer struct {
	strengthScores map[models.APIResultSource]int
}

// NewSynthesizer builds a synthesizer with the given strength score per
// source. Sources without an entry default to the ICAO passport strength of 4.
func NewSynthesizer(strengthScores map[models.APIResultSource]int) *Synthesizer {
	return &Synthesizer{strengthScores: strengthScores}
}

// ParseReply deterministically parses a raw provider reply body into the
// canonical ThirdPartyAPIResult. The retry sentinel is recognized before any
// schema parsing, for every source.
func (s *Synthesizer) ParseReply(source models.APIResultSource, body []byte) (*models.ThirdPartyAPIResult, error) {
	if bytes.Equal(bytes.TrimSpace(body), retrySentinel) {
		return &models.ThirdPartyAPIResult{Source: source, ErrorStatus: models.ErrorStatusRetry}, nil
	}

	switch source {
	case models.SourceDVAD:
		return parseDVADReply(body)
	case models.SourceDCS:
		return parseDCSReply(body)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrUnparseableReply, source)
	}
}

func parseDVADReply(body []byte) (*models.ThirdPartyAPIResult, error) {
	var reply dvadReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, ErrUnparseableReply
	}
	if len(reply.Errors) > 0 {
		return nil, ErrProviderReported
	}
	if reply.Data == nil || reply.Data.ValidatePassport == nil {
		return nil, ErrUnparseableReply
	}
	vp := reply.Data.ValidatePassport
	return &models.ThirdPartyAPIResult{
		Valid:  vp.PassportFound && vp.ValidationResult,
		Source: models.SourceDVAD,
	}, nil
}

func parseDCSReply(body []byte) (*models.ThirdPartyAPIResult, error) {
	var reply dcsReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, ErrUnparseableReply
	}
	if reply.Error {
		return nil, ErrProviderReported
	}
	if reply.RequestID == "" || reply.Valid == nil {
		return nil, ErrUnparseableReply
	}
	return &models.ThirdPartyAPIResult{
		Valid:         *reply.Valid,
		TransactionID: reply.RequestID,
		Source:        models.SourceDCS,
	}, nil
}

// Synthesize turns a canonical API result into the three-way outcome. A
// retry status surfaces as OutcomeRetry; otherwise scoring policy applies:
// a match earns validity 2 and a succeeded record check, a mismatch earns
// validity 0, the D02 contra-indicator, and a failed record check.
func (s *Synthesizer) Synthesize(apiResult models.ThirdPartyAPIResult, form models.PassportFormData) Outcome {
	if apiResult.ErrorStatus == models.ErrorStatusRetry {
		return Outcome{Kind: OutcomeRetry}
	}

	checkResult := &models.DocumentCheckResult{
		StrengthScore:  s.strengthScore(apiResult.Source),
		TransactionID:  apiResult.TransactionID,
		Source:         apiResult.Source,
		PassportNumber: form.PassportNumber,
		ExpiryDate:     form.ExpiryDate,
	}

	if apiResult.Valid {
		checkResult.Verified = true
		checkResult.ValidityScore = 2
		checkResult.ChecksSucceeded = []string{recordCheck}
	} else {
		checkResult.Verified = false
		checkResult.ValidityScore = 0
		checkResult.ContraIndicators = []string{ContraIndicatorDataMismatch}
		checkResult.ChecksFailed = []string{recordCheck}
	}

	return Outcome{Kind: OutcomeResult, Result: checkResult}
}

func (s *Synthesizer) strengthScore(source models.APIResultSource) int {
	if score, ok := s.strengthScores[source]; ok {
		return score
	}
	return 4
}
