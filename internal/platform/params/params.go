// Package params exposes named string and secret lookups, the shape the
// surrounding platform's parameter store presents. Values are cached with a
// TTL so hot paths do not hammer the backing store.
package params

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Well-known parameter names.
const (
	DCSSigningKey    = "dcs/signing-key"
	DCSEncryptionKey = "dcs/encryption-key"
	DCSProviderCert  = "dcs/provider-cert"
	DVADClientID     = "dvad/client-id"
	DVADClientSecret = "dvad/client-secret"
	DVADAPIKey       = "dvad/api-key"
	VCSigningKey     = "vc/signing-key"
	CIReasonPrefix   = "ci-reasons/" // e.g. ci-reasons/D02
)

// Provider is the named lookup collaborator.
type Provider interface {
	// Get returns a plain parameter value.
	Get(name string) (string, error)
	// GetSecret returns a decrypted secret value.
	GetSecret(name string) (string, error)
}

type cacheEntry struct {
	value   string
	fetched time.Time
}

// EnvProvider resolves parameters from environment variables, caching values
// for the configured TTL. Parameter names map to variables by uppercasing
// and replacing separators: "dcs/signing-key" -> "DCS_SIGNING_KEY".
type EnvProvider struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewEnvProvider(ttl time.Duration) *EnvProvider {
	return &EnvProvider{
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

func (p *EnvProvider) Get(name string) (string, error) {
	return p.lookup(name)
}

// GetSecret is identical to Get for the env backend; the distinction matters
// for store-backed implementations that decrypt on read.
func (p *EnvProvider) GetSecret(name string) (string, error) {
	return p.lookup(name)
}

func (p *EnvProvider) lookup(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.cache[name]; ok && p.now().Sub(entry.fetched) < p.ttl {
		return entry.value, nil
	}

	value := os.Getenv(envKey(name))
	if value == "" {
		return "", fmt.Errorf("parameter %q is not set", name)
	}
	p.cache[name] = cacheEntry{value: value, fetched: p.now()}
	return value, nil
}

func envKey(name string) string {
	key := strings.NewReplacer("/", "_", "-", "_").Replace(name)
	return strings.ToUpper(key)
}

var _ Provider = (*EnvProvider)(nil)
