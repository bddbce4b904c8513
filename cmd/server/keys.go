package main

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"passport-cri/internal/document/result"
	"passport-cri/internal/platform/params"
)

func errUnknownProvider(name string) error {
	return fmt.Errorf("unknown document check provider %q", name)
}

// loadRSAPrivateKey reads a PEM-encoded RSA private key from the parameter
// store, accepting both PKCS#1 and PKCS#8 encodings.
func loadRSAPrivateKey(secrets params.Provider, name string) (*rsa.PrivateKey, error) {
	block, err := pemBlock(secrets, name)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parameter %q does not hold a parseable private key", name)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parameter %q does not hold an RSA private key", name)
	}
	return key, nil
}

// loadECPrivateKey reads a PEM-encoded EC private key from the parameter
// store, accepting both SEC 1 and PKCS#8 encodings.
func loadECPrivateKey(secrets params.Provider, name string) (*ecdsa.PrivateKey, error) {
	block, err := pemBlock(secrets, name)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parameter %q does not hold a parseable private key", name)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parameter %q does not hold an EC private key", name)
	}
	return key, nil
}

func loadCertificate(secrets params.Provider, name string) (*x509.Certificate, error) {
	block, err := pemBlock(secrets, name)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parameter %q does not hold a parseable certificate", name)
	}
	return cert, nil
}

func pemBlock(secrets params.Provider, name string) (*pem.Block, error) {
	raw, err := secrets.GetSecret(name)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, fmt.Errorf("parameter %q is not PEM encoded", name)
	}
	return block, nil
}

// loadCIReasons maps contra-indicator codes to the human-readable reasons
// embedded in issued credentials. The store may override the defaults.
func loadCIReasons(secrets params.Provider) map[string]string {
	reasons := map[string]string{
		result.ContraIndicatorDataMismatch: "Details entered do not match the issuing authority's records",
	}
	for code := range reasons {
		if v, err := secrets.Get(params.CIReasonPrefix + code); err == nil {
			reasons[code] = v
		}
	}
	return reasons
}
