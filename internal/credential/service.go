// Package credential builds the evidence block and signs the verifiable
// credential attesting a document-check outcome. It never mutates the
// persisted check result it reads from.
package credential

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"passport-cri/internal/document/models"
	"passport-cri/internal/document/tracer"
)

// SigningError wraps a failure to sign the credential. It is fatal to the
// request; no credential is ever emitted without a valid signature.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign verifiable credential: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// TTL is a configured duration as amount plus unit, e.g. {1000, "HOURS"}.
type TTL struct {
	Amount int64
	Unit   string
}

// Duration resolves the TTL to a time.Duration.
func (t TTL) Duration() (time.Duration, error) {
	var unit time.Duration
	switch strings.ToUpper(t.Unit) {
	case "SECONDS":
		unit = time.Second
	case "MINUTES":
		unit = time.Minute
	case "HOURS":
		unit = time.Hour
	default:
		return 0, fmt.Errorf("unsupported ttl unit %q", t.Unit)
	}
	if t.Amount <= 0 {
		return 0, fmt.Errorf("ttl amount must be positive, got %d", t.Amount)
	}
	return time.Duration(t.Amount) * unit, nil
}

// Service issues signed verifiable credentials. The signing key is
// configured once at process start.
type Service struct {
	issuer     string
	signingKey *ecdsa.PrivateKey
	maxTTL     TTL
	ciReasons  map[string]string
	trace      tracer.Tracer
	log        *slog.Logger
	now        func() time.Time
}

func NewService(issuer string, signingKey *ecdsa.PrivateKey, maxTTL TTL, ciReasons map[string]string, trace tracer.Tracer, log *slog.Logger) *Service {
	return &Service{
		issuer:     issuer,
		signingKey: signingKey,
		maxTTL:     maxTTL,
		ciReasons:  ciReasons,
		trace:      trace,
		log:        log,
		now:        time.Now,
	}
}

// Issue builds and signs the credential for a completed document check.
// nbf is the issuance instant and exp is exactly maxTTL later.
func (s *Service) Issue(ctx context.Context, subject string, checkResult models.DocumentCheckResult, identity Identity) (string, error) {
	if err := checkResult.CheckInvariants(); err != nil {
		return "", err
	}

	ttl, err := s.maxTTL.Duration()
	if err != nil {
		return "", err
	}

	_, span := s.trace.Start(ctx, tracer.SpanCredentialIssue,
		tracer.Bool(tracer.AttrVerified, checkResult.Verified),
	)

	notBefore := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			NotBefore: jwt.NewNumericDate(notBefore),
			ExpiresAt: jwt.NewNumericDate(notBefore.Add(ttl)),
		},
		VC: VC{
			Type: []string{typeVerifiableCredential, typeIdentityCheckCredential},
			CredentialSubject: CredentialSubject{
				Name:      identity.Names,
				BirthDate: identity.BirthDates,
				Passport: []PassportDetails{{
					DocumentNumber: checkResult.PassportNumber,
					ExpiryDate:     checkResult.ExpiryDate,
					ICAOIssuerCode: ukICAOIssuerCode,
				}},
			},
			Evidence: []Evidence{buildEvidence(checkResult, s.ciReasons)},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.signingKey)
	if err != nil {
		signingErr := &SigningError{Err: err}
		span.End(signingErr)
		s.log.Error("credential signing failed", "subject", subject)
		return "", signingErr
	}
	span.End(nil)

	s.log.Info("verifiable credential issued",
		"subject", subject,
		"verified", checkResult.Verified,
		"txn", checkResult.TransactionID,
	)
	return signed, nil
}
