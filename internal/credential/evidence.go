package credential

import "passport-cri/internal/document/models"

// Evidence is the IdentityCheck evidence block of an issued credential.
// Exactly one of CheckDetails/FailedCheckDetails is populated per outcome
// class: CheckDetails for verified results, FailedCheckDetails (with ci and
// ciReasons) otherwise.
type Evidence struct {
	Type               string        `json:"type"`
	Txn                string        `json:"txn"`
	StrengthScore      int           `json:"strengthScore"`
	ValidityScore      int           `json:"validityScore"`
	CI                 []string      `json:"ci,omitempty"`
	CheckDetails       []CheckDetail `json:"checkDetails,omitempty"`
	FailedCheckDetails []CheckDetail `json:"failedCheckDetails,omitempty"`
	CIReasons          []string      `json:"ciReasons,omitempty"`
}

// CheckDetail describes one check performed during verification.
type CheckDetail struct {
	CheckMethod string `json:"checkMethod"`
	DataCheck   string `json:"dataCheck"`
}

const evidenceTypeIdentityCheck = "IdentityCheck"

var verificationCheckDetail = CheckDetail{
	CheckMethod: "data",
	DataCheck:   "verification_check",
}

// buildEvidence maps a persisted check result into the evidence block.
// Scores are copied verbatim; ciReasons resolves each contra-indicator code
// through the configured reason map.
func buildEvidence(checkResult models.DocumentCheckResult, ciReasons map[string]string) Evidence {
	evidence := Evidence{
		Type:          evidenceTypeIdentityCheck,
		Txn:           checkResult.TransactionID,
		StrengthScore: checkResult.StrengthScore,
		ValidityScore: checkResult.ValidityScore,
	}

	if checkResult.Verified {
		evidence.CheckDetails = []CheckDetail{verificationCheckDetail}
		return evidence
	}

	evidence.FailedCheckDetails = []CheckDetail{verificationCheckDetail}
	evidence.CI = append(evidence.CI, checkResult.ContraIndicators...)
	for _, code := range checkResult.ContraIndicators {
		if reason, ok := ciReasons[code]; ok {
			evidence.CIReasons = append(evidence.CIReasons, reason)
		}
	}
	return evidence
}
