package utils

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("4821")
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}

	if !CheckSecretHash("4821", hash) {
		t.Error("Correct secret should verify against its hash")
	}
	if CheckSecretHash("1248", hash) {
		t.Error("Wrong secret should not verify")
	}
}

func TestPairingTokenRoundtrip(t *testing.T) {
	token, err := GeneratePairingToken(42, "jti-1", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate pairing token: %v", err)
	}

	deviceID, jti, err := ParsePairingToken(token, testSecret)
	if err != nil {
		t.Fatalf("Failed to parse pairing token: %v", err)
	}
	if deviceID != 42 {
		t.Errorf("Expected device id 42, got %d", deviceID)
	}
	if jti != "jti-1" {
		t.Errorf("Expected jti 'jti-1', got %q", jti)
	}
}

func TestPairingTokenExpired(t *testing.T) {
	token, err := GeneratePairingToken(42, "jti-2", -time.Minute, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate pairing token: %v", err)
	}

	_, _, err = ParsePairingToken(token, testSecret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestPairingTokenBadSignature(t *testing.T) {
	token, err := GeneratePairingToken(42, "jti-3", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate pairing token: %v", err)
	}

	_, _, err = ParsePairingToken(token, "other-secret")
	if err == nil {
		t.Error("Token signed with a different secret should be rejected")
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("Signature failure must not look like expiry")
	}
}

func TestPairingTokenRejectsDeviceToken(t *testing.T) {
	token, err := GenerateDeviceToken("abc-uuid", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}

	if _, _, err := ParsePairingToken(token, testSecret); err == nil {
		t.Error("Device token must not pass as a pairing token")
	}
}

func TestDeviceTokenRoundtrip(t *testing.T) {
	token, err := GenerateDeviceToken("1b671a64-40d5-491e-99b0-da01ff1f3341", 30*24*time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}

	uuid, err := DeviceUUIDFromToken(token, testSecret)
	if err != nil {
		t.Fatalf("Failed to validate device token: %v", err)
	}
	if uuid != "1b671a64-40d5-491e-99b0-da01ff1f3341" {
		t.Errorf("Unexpected uuid: %q", uuid)
	}
}

func TestDeviceTokenRejectsPairingToken(t *testing.T) {
	token, err := GeneratePairingToken(7, "jti-4", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate pairing token: %v", err)
	}

	if _, err := DeviceUUIDFromToken(token, testSecret); err == nil {
		t.Error("Pairing token must not pass as a device credential")
	}
}
