package main

import (
	"testing"

	"kafe/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: "short"}); err == nil {
		t.Fatalf("expected short auth secret to be rejected")
	}
	err := validateSecurityConfig(config.Config{
		Env:           "production",
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		AllowedOrigin: "*",
	})
	if err == nil {
		t.Fatalf("expected wildcard origin to be rejected in production")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		Env:           "production",
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		AllowedOrigin: "https://kasir.kafe.id",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
