package pairing

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/metrics"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/registry"
	"github.com/clubnova/clubposgo/internal/utils"
)

var (
	// ErrExpired means the artifact's validity window has passed
	ErrExpired = errors.New("pairing artifact expired")
	// ErrInvalid covers bad signatures, unknown codes and unknown devices
	ErrInvalid = errors.New("pairing artifact invalid")
	// ErrAlreadyRedeemed enforces one-shot semantics
	ErrAlreadyRedeemed = errors.New("pairing artifact already redeemed")
	// ErrDeviceInactive rejects issuance for deactivated devices, which
	// redemption would refuse anyway
	ErrDeviceInactive = errors.New("device is deactivated")
)

// Artifact is everything an administrator needs to hand a terminal: the
// signed token (QR / deep link) and the short code for manual entry.
type Artifact struct {
	Token           string    `json:"token"`
	ShortCode       string    `json:"shortCode"`
	RedemptionLink  string    `json:"redemptionLink"`
	ExpiresAt       time.Time `json:"expiresAt"`
	ValidityMinutes int       `json:"validityMinutes"`
}

// codeEntry maps an outstanding short code back to its token
type codeEntry struct {
	token     string
	expiresAt time.Time
}

// Service issues and redeems pairing artifacts. Tokens are self-contained
// (signature + embedded expiry); only two small in-memory indexes exist:
// outstanding short codes for the validity window, and consumed token ids
// for one-shot enforcement.
type Service struct {
	devices *registry.Service
	audit   *audit.Writer

	secret         string
	baseURL        string
	validity       time.Duration
	deviceTokenTTL time.Duration

	consumed *utils.ConsumedSet

	mu    sync.Mutex
	codes map[string]codeEntry
}

// NewService creates the pairing token service
func NewService(devices *registry.Service, auditWriter *audit.Writer, secret, baseURL string, validity, deviceTokenTTL time.Duration) *Service {
	return &Service{
		devices:        devices,
		audit:          auditWriter,
		secret:         secret,
		baseURL:        baseURL,
		validity:       validity,
		deviceTokenTTL: deviceTokenTTL,
		consumed:       utils.NewConsumedSet(validity),
		codes:          make(map[string]codeEntry),
	}
}

// Issue produces a pairing artifact for an existing device. A new artifact
// supersedes nothing: earlier unexpired artifacts for the same device stay
// valid until redeemed or expired.
func (s *Service) Issue(deviceID uint) (*Artifact, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	if !device.Active {
		return nil, ErrDeviceInactive
	}

	jti := uuid.NewString()
	token, err := utils.GeneratePairingToken(device.ID, jti, s.validity, s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign pairing token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.validity)
	code, err := s.registerShortCode(token, expiresAt)
	if err != nil {
		return nil, err
	}

	s.audit.Append(device.ID, models.EventPairIssued,
		fmt.Sprintf("pairing artifact issued (code %s)", code))
	metrics.PairingIssued()
	log.Printf("🔗 Pairing artifact issued for %s (code: %s, expires: %s)",
		device.Name, code, expiresAt.Format(time.RFC3339))

	return &Artifact{
		Token:           token,
		ShortCode:       code,
		RedemptionLink:  fmt.Sprintf("%s/pos-terminal/pair?p=%s", s.baseURL, token),
		ExpiresAt:       expiresAt,
		ValidityMinutes: int(s.validity.Minutes()),
	}, nil
}

// RedeemByToken validates a pairing token, burns it, pairs the device and
// issues its long-lived credential
func (s *Service) RedeemByToken(token, ip string) (*models.Device, string, error) {
	deviceID, jti, err := utils.ParsePairingToken(token, s.secret)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			metrics.PairingRedeemed("expired")
			return nil, "", ErrExpired
		}
		metrics.PairingRedeemed("invalid")
		return nil, "", ErrInvalid
	}

	if s.consumed.Contains(jti) {
		metrics.PairingRedeemed("already_redeemed")
		return nil, "", ErrAlreadyRedeemed
	}

	device, err := s.devices.Get(deviceID)
	if err != nil {
		metrics.PairingRedeemed("invalid")
		return nil, "", ErrInvalid
	}
	if !device.Active {
		metrics.PairingRedeemed("invalid")
		return nil, "", fmt.Errorf("%w: device is deactivated", ErrInvalid)
	}

	// One-shot: first consumer wins, a concurrent redeem of the same token
	// sees already-redeemed
	if !s.consumed.Consume(jti) {
		metrics.PairingRedeemed("already_redeemed")
		return nil, "", ErrAlreadyRedeemed
	}

	device, err = s.devices.BindPermanent(device.ID, ip)
	if err != nil {
		return nil, "", err
	}

	credential, err := utils.GenerateDeviceToken(device.UUID, s.deviceTokenTTL, s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue device credential: %w", err)
	}

	s.audit.AppendFull(device.ID, models.EventPaired, "paired via pairing token", nil, nil, ip)
	metrics.PairingRedeemed("success")
	log.Printf("✅ Device paired: %s (UUID: %s)", device.Name, device.UUID)

	return device, credential, nil
}

// RedeemByCode resolves a short code to its token and redeems that
func (s *Service) RedeemByCode(code, ip string) (*models.Device, string, error) {
	s.mu.Lock()
	entry, ok := s.codes[code]
	if ok && time.Now().After(entry.expiresAt) {
		delete(s.codes, code)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		metrics.PairingRedeemed("invalid")
		return nil, "", ErrInvalid
	}

	return s.RedeemByToken(entry.token, ip)
}

// registerShortCode picks a code that does not collide with any other
// outstanding code
func (s *Service) registerShortCode(token string, expiresAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop expired entries so they cannot block their code values
	now := time.Now()
	for code, entry := range s.codes {
		if now.After(entry.expiresAt) {
			delete(s.codes, code)
		}
	}

	for i := 0; i < 50; i++ {
		code := utils.GeneratePairingCode()
		if _, taken := s.codes[code]; taken {
			continue
		}
		s.codes[code] = codeEntry{token: token, expiresAt: expiresAt}
		return code, nil
	}

	return "", errors.New("could not allocate a free pairing code")
}
