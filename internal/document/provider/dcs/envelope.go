package dcs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"passport-cri/internal/document/models"
)

// ErrEnvelopeUnwrap is the single opaque failure for anything that goes wrong
// while unwrapping a provider reply: signature mismatch, expired signer
// certificate, malformed ciphertext, or unparseable plaintext. The causes are
// deliberately collapsed and never attached, because decrypted content and
// crypto diagnostics can both carry PII.
var ErrEnvelopeUnwrap = errors.New("unable to unwrap provider response")

// claims is the provider's document-check request schema.
type claims struct {
	RequestID      string   `json:"requestId"`
	CorrelationID  string   `json:"correlationId"`
	Timestamp      string   `json:"timestamp"`
	PassportNumber string   `json:"passportNumber"`
	Surname        string   `json:"surname"`
	Forenames      []string `json:"forenames"`
	DateOfBirth    string   `json:"dateOfBirth"`
	ExpiryDate     string   `json:"expiryDate"`
}

// Reply is the parsed plaintext of an unwrapped provider response.
type Reply struct {
	RequestID     string `json:"requestId"`
	CorrelationID string `json:"correlationId"`
	Valid         bool   `json:"valid"`
	Error         bool   `json:"error"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// Envelope signs outbound document-check requests and unwraps inbound
// replies. The signing key is ours; the provider certificate verifies reply
// signatures; the encryption key decrypts replies when the provider encrypts
// them.
type Envelope struct {
	signingKey    *rsa.PrivateKey
	encryptionKey *rsa.PrivateKey
	providerCert  *x509.Certificate

	now func() time.Time
}

// NewEnvelope builds the envelope service. encryptionKey may equal signingKey
// when the provider is configured with a single key pair.
func NewEnvelope(signingKey, encryptionKey *rsa.PrivateKey, providerCert *x509.Certificate) *Envelope {
	return &Envelope{
		signingKey:    signingKey,
		encryptionKey: encryptionKey,
		providerCert:  providerCert,
		now:           time.Now,
	}
}

// PreparePayload maps the form fields into the provider claim schema, signs
// the claims with the configured key, and serializes to compact form.
func (e *Envelope) PreparePayload(form models.PassportFormData) (string, error) {
	payload, err := json.Marshal(claims{
		RequestID:      uuid.NewString(),
		CorrelationID:  uuid.NewString(),
		Timestamp:      e.now().UTC().Format(time.RFC3339),
		PassportNumber: form.PassportNumber,
		Surname:        form.Surname,
		Forenames:      form.Forenames,
		DateOfBirth:    form.DateOfBirth,
		ExpiryDate:     form.ExpiryDate,
	})
	if err != nil {
		return "", err
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: e.signingKey}, nil)
	if err != nil {
		return "", err
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}
	return jws.CompactSerialize()
}

// Unwrap verifies and, if necessary, decrypts a provider reply body and
// parses the plaintext into a Reply. Every failure mode returns
// ErrEnvelopeUnwrap; callers must treat it as terminal for the attempt.
func (e *Envelope) Unwrap(replyBody string) (*Reply, error) {
	now := e.now()
	if now.Before(e.providerCert.NotBefore) || now.After(e.providerCert.NotAfter) {
		return nil, ErrEnvelopeUnwrap
	}

	serialized := strings.TrimSpace(replyBody)

	// Compact JWE carries five segments, compact JWS three.
	if strings.Count(serialized, ".") == 4 {
		enc, err := jose.ParseEncrypted(serialized)
		if err != nil {
			return nil, ErrEnvelopeUnwrap
		}
		plaintext, err := enc.Decrypt(e.encryptionKey)
		if err != nil {
			return nil, ErrEnvelopeUnwrap
		}
		serialized = string(plaintext)
	}

	jws, err := jose.ParseSigned(serialized)
	if err != nil {
		return nil, ErrEnvelopeUnwrap
	}
	payload, err := jws.Verify(e.providerCert.PublicKey)
	if err != nil {
		return nil, ErrEnvelopeUnwrap
	}

	var reply Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return nil, ErrEnvelopeUnwrap
	}
	if reply.RequestID == "" {
		return nil, ErrEnvelopeUnwrap
	}
	return &reply, nil
}
