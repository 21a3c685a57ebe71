package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted when a credential is not configured.
const (
	EnvExtensionID  = "GOOGLE_EXTENSION_ID"
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRefreshToken = "GOOGLE_REFRESH_TOKEN"
)

var ErrMissingCredentials = errors.New("missing credentials")

// Env is a snapshot of environment variables.
type Env map[string]string

// EnvFromList parses KEY=VALUE pairs as returned by os.Environ.
func EnvFromList(list []string) Env {
	env := make(Env, len(list))
	for _, kv := range list {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

func EnvFromOS() Env {
	return EnvFromList(os.Environ())
}

// Credentials is the fully resolved credential set for one publish cycle.
type Credentials struct {
	ExtensionID  string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Resolve fills every credential from opts, falling back to env.
func Resolve(opts Options, env Env) Credentials {
	pick := func(v, key string) string {
		if v != "" {
			return v
		}
		return env[key]
	}
	return Credentials{
		ExtensionID:  pick(opts.ExtensionID, EnvExtensionID),
		ClientID:     pick(opts.ClientID, EnvClientID),
		ClientSecret: pick(opts.ClientSecret, EnvClientSecret),
		RefreshToken: pick(opts.RefreshToken, EnvRefreshToken),
	}
}

// Validate reports every credential that is still empty, by the name of the
// environment variable that would supply it.
func (c Credentials) Validate() error {
	var missing []string
	if c.ExtensionID == "" {
		missing = append(missing, EnvExtensionID)
	}
	if c.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if c.RefreshToken == "" {
		missing = append(missing, EnvRefreshToken)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
