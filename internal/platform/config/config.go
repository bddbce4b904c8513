package config

import (
	"os"
	"strconv"
	"time"
)

// Provider names selectable via PASSPORT_CRI_PROVIDER.
const (
	ProviderDCS  = "dcs"
	ProviderDVAD = "dvad"
)

// Server captures process-level configuration so main stays lean. Secrets
// (keys, certificates, client credentials) are not here; they come from the
// params provider.
type Server struct {
	Addr     string
	Provider string

	// Bounded waits on third-party endpoints are mandatory.
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	DCSPostURL    string
	LogDCSReplies bool

	DVADTokenURL      string
	DVADGraphQLURL    string
	DVADUserAgent     string
	TokenSafetyMargin time.Duration

	Issuer       string
	MaxTTLAmount int64
	MaxTTLUnit   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:     envOr("PASSPORT_CRI_ADDR", ":8080"),
		Provider: envOr("PASSPORT_CRI_PROVIDER", ProviderDVAD),

		ConnectTimeout: durationOr("PASSPORT_CRI_CONNECT_TIMEOUT", 5*time.Second),
		RequestTimeout: durationOr("PASSPORT_CRI_REQUEST_TIMEOUT", 30*time.Second),

		DCSPostURL:    os.Getenv("DCS_POST_URL"),
		LogDCSReplies: os.Getenv("LOG_DCS_RESPONSE") == "true",

		DVADTokenURL:      os.Getenv("DVAD_TOKEN_URL"),
		DVADGraphQLURL:    os.Getenv("DVAD_GRAPHQL_URL"),
		DVADUserAgent:     envOr("DVAD_USER_AGENT", "passport-cri"),
		TokenSafetyMargin: durationOr("DVAD_TOKEN_SAFETY_MARGIN", 30*time.Second),

		Issuer:       os.Getenv("VC_ISSUER"),
		MaxTTLAmount: int64Or("VC_MAX_TTL", 1000),
		MaxTTLUnit:   envOr("VC_MAX_TTL_UNIT", "HOURS"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func int64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
