package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERVICENOW_URL", "https://dev00000.service-now.com/")
	t.Setenv("SERVICENOW_USERNAME", "admin")
	t.Setenv("SERVICENOW_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceNowTable != "change_request" {
		t.Fatalf("expected default table change_request, got %q", cfg.ServiceNowTable)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("expected bbolt storage, got %q", cfg.StorageType)
	}
	if cfg.ServiceNowPassword != "secret" {
		t.Fatalf("password not read from env")
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVICENOW_TABLE", "incident")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceNowTable != "incident" {
		t.Fatalf("expected incident, got %q", cfg.ServiceNowTable)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %s", cfg.RequestTimeout)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("expected none, got %q", cfg.StorageType)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("SERVICENOW_URL", "https://dev00000.service-now.com/")
	t.Setenv("SERVICENOW_USERNAME", "admin")
	t.Setenv("SERVICENOW_PASSWORD", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "servicenow_password") {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestLoadRejectsBadURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVICENOW_URL", "dev00000.service-now.com")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	cfg := Config{ServiceNowPassword: "secret", AWSSecretAccessKey: "key", ServiceNowUsername: "admin"}
	red := cfg.Redacted()
	if red.ServiceNowPassword == "secret" || red.AWSSecretAccessKey == "key" {
		t.Fatalf("secrets not redacted: %+v", red)
	}
	if red.ServiceNowUsername != "admin" {
		t.Fatalf("non-secret fields must be preserved")
	}
	if cfg.ServiceNowPassword != "secret" {
		t.Fatalf("Redacted must not mutate the receiver")
	}
}
