package config

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvFromList(t *testing.T) {
	env := EnvFromList([]string{"A=1", "B=x=y", "MALFORMED", "EMPTY="})

	if env["A"] != "1" {
		t.Errorf("A = %q, expected %q", env["A"], "1")
	}
	if env["B"] != "x=y" {
		t.Errorf("B = %q, expected %q", env["B"], "x=y")
	}
	if _, ok := env["MALFORMED"]; ok {
		t.Error("MALFORMED should be skipped")
	}
	if v, ok := env["EMPTY"]; !ok || v != "" {
		t.Error("EMPTY should be present with empty value")
	}
}

func TestResolveFallsBackToEnv(t *testing.T) {
	env := Env{
		EnvExtensionID:  "hey",
		EnvClientID:     "thats",
		EnvClientSecret: "pretty",
		EnvRefreshToken: "good",
	}

	creds := Resolve(DefaultOptions(), env)
	expected := Credentials{
		ExtensionID:  "hey",
		ClientID:     "thats",
		ClientSecret: "pretty",
		RefreshToken: "good",
	}
	if creds != expected {
		t.Errorf("Resolve = %+v, expected %+v", creds, expected)
	}
}

func TestResolvePrefersOptions(t *testing.T) {
	env := Env{EnvExtensionID: "from-env", EnvClientID: "env-client"}
	opts := Options{ExtensionID: "from-options"}

	creds := Resolve(opts, env)
	if creds.ExtensionID != "from-options" {
		t.Errorf("ExtensionID = %q, expected %q", creds.ExtensionID, "from-options")
	}
	if creds.ClientID != "env-client" {
		t.Errorf("ClientID = %q, expected %q", creds.ClientID, "env-client")
	}
}

func TestCredentialsValidate(t *testing.T) {
	full := Credentials{ExtensionID: "a", ClientID: "b", ClientSecret: "c", RefreshToken: "d"}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate failed on full credentials: %v", err)
	}

	partial := Credentials{ExtensionID: "a", ClientSecret: "c"}
	err := partial.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("error = %v, expected ErrMissingCredentials", err)
	}
	for _, name := range []string{EnvClientID, EnvRefreshToken} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should mention %s", err, name)
		}
	}
	if strings.Contains(err.Error(), EnvExtensionID) {
		t.Errorf("error %q should not mention %s", err, EnvExtensionID)
	}
}
