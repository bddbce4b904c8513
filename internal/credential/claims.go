package credential

import (
	"github.com/golang-jwt/jwt/v5"

	"passport-cri/internal/document/models"
)

// Credential type values carried in vc.type.
const (
	typeVerifiableCredential    = "VerifiableCredential"
	typeIdentityCheckCredential = "IdentityCheckCredential"
)

// ukICAOIssuerCode identifies the UK as the passport issuing state.
const ukICAOIssuerCode = "GBR"

// NamePart is one component of a person's name.
type NamePart struct {
	Type  string `json:"type"` // GivenName or FamilyName
	Value string `json:"value"`
}

// Name groups the parts of one full name.
type Name struct {
	NameParts []NamePart `json:"nameParts"`
}

// BirthDate wraps a date of birth value.
type BirthDate struct {
	Value string `json:"value"`
}

// Identity is the caller-supplied person identity for the credential subject.
type Identity struct {
	Names      []Name      `json:"name"`
	BirthDates []BirthDate `json:"birthDate"`
}

// IdentityFromForm maps the passport form's declared identity into the
// credential subject shape.
func IdentityFromForm(form models.PassportFormData) Identity {
	nameParts := make([]NamePart, 0, len(form.Forenames)+1)
	for _, forename := range form.Forenames {
		nameParts = append(nameParts, NamePart{Type: "GivenName", Value: forename})
	}
	nameParts = append(nameParts, NamePart{Type: "FamilyName", Value: form.Surname})

	return Identity{
		Names:      []Name{{NameParts: nameParts}},
		BirthDates: []BirthDate{{Value: form.DateOfBirth}},
	}
}

// PassportDetails is the passport entry of the credential subject.
type PassportDetails struct {
	DocumentNumber string `json:"documentNumber"`
	ExpiryDate     string `json:"expiryDate"`
	ICAOIssuerCode string `json:"icaoIssuerCode"`
}

// CredentialSubject carries the identity the credential attests to.
type CredentialSubject struct {
	Name      []Name            `json:"name"`
	BirthDate []BirthDate       `json:"birthDate"`
	Passport  []PassportDetails `json:"passport"`
}

// VC is the verifiable credential claim body.
type VC struct {
	Type              []string          `json:"type"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
	Evidence          []Evidence        `json:"evidence"`
}

// Claims is the full signed claim set: registered claims plus the vc block.
type Claims struct {
	jwt.RegisteredClaims
	VC VC `json:"vc"`
}
