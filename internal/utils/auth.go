package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubnova/clubposgo/internal/config"
	"github.com/clubnova/clubposgo/internal/models"
)

// ErrTokenExpired is returned when a token's signature is valid but its
// embedded expiry has passed
var ErrTokenExpired = errors.New("token expired")

// HashSecret hashes a password or device PIN using bcrypt
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), 10)
	return string(bytes), err
}

// CheckSecretHash compares a password or PIN with a bcrypt hash
func CheckSecretHash(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// GenerateStaffToken generates an access token for a back-office user
func GenerateStaffToken(user *models.UserAuth, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
		"type":  "staff",
		"exp":   time.Now().Add(time.Hour * 8).Unix(), // One shift
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// GenerateDeviceToken creates the long-lived credential a paired or
// authenticated terminal uses for API access
func GenerateDeviceToken(deviceUUID string, ttl time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  "device:" + deviceUUID,
		"uuid": deviceUUID,
		"type": "device",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GeneratePairingToken creates a short-lived signed token that authorizes
// binding exactly one device. It is not an API credential.
func GeneratePairingToken(deviceID uint, jti string, validity time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"type":     "pairing",
		"deviceId": float64(deviceID),
		"jti":      jti,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(validity).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParsePairingToken validates a pairing token and extracts the device id and
// token id. Expiry is reported as ErrTokenExpired so callers can distinguish
// it from a bad signature.
func ParsePairingToken(tokenString, secret string) (deviceID uint, jti string, err error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", ErrTokenExpired
		}
		return 0, "", err
	}

	if claims["type"] != "pairing" {
		return 0, "", errors.New("not a pairing token")
	}

	rawID, ok := claims["deviceId"].(float64)
	if !ok {
		return 0, "", errors.New("pairing token missing device id")
	}
	rawJTI, ok := claims["jti"].(string)
	if !ok || rawJTI == "" {
		return 0, "", errors.New("pairing token missing jti")
	}

	return uint(rawID), rawJTI, nil
}

// DeviceUUIDFromToken validates a device credential and returns the device
// UUID it was issued to
func DeviceUUIDFromToken(tokenString, secret string) (string, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return "", err
	}

	if claims["type"] != "device" {
		return "", errors.New("not a device token")
	}

	uuid, ok := claims["uuid"].(string)
	if !ok || uuid == "" {
		return "", errors.New("device token missing uuid")
	}
	return uuid, nil
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
