package deviceauth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/metrics"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/pairing"
	"github.com/clubnova/clubposgo/internal/registry"
	"github.com/clubnova/clubposgo/internal/utils"
)

var (
	// ErrInvalidPIN is a bcrypt mismatch on an existing active device.
	// No lockout is applied to PIN attempts; rate limiting belongs at
	// the reverse proxy.
	ErrInvalidPIN = errors.New("incorrect PIN")
	// ErrNoEmployeeMatch means the quick-start identifier resolved to no
	// active employee
	ErrNoEmployeeMatch = errors.New("no employee matches that identifier")
)

// EmployeeDirectory is the read-only staff lookup quick start needs
type EmployeeDirectory interface {
	FindByIdentifier(identifier string) (*models.Employee, error)
	ListActive() ([]models.Employee, error)
}

// CatalogReader supplies the data preloaded into configuration snapshots
type CatalogReader interface {
	ActiveProducts() ([]models.Product, error)
	OpenCashSession() (*uint, error)
}

// Service authenticates terminals. Three independent credential strategies
// (PIN, pairing token, employee identifier) all converge on the same Auth
// result, so queue and UI logic stay strategy-agnostic.
type Service struct {
	devices   *registry.Service
	pairing   *pairing.Service
	employees EmployeeDirectory
	catalog   CatalogReader
	audit     *audit.Writer

	secret         string
	deviceTokenTTL time.Duration
}

// NewService creates the device authentication service
func NewService(devices *registry.Service, pairingSvc *pairing.Service, employees EmployeeDirectory, catalog CatalogReader, auditWriter *audit.Writer, secret string, deviceTokenTTL time.Duration) *Service {
	return &Service{
		devices:        devices,
		pairing:        pairingSvc,
		employees:      employees,
		catalog:        catalog,
		audit:          auditWriter,
		secret:         secret,
		deviceTokenTTL: deviceTokenTTL,
	}
}

// AuthenticateWithPIN validates the uuid+PIN credential pair
func (s *Service) AuthenticateWithPIN(deviceUUID, pin, ip string) (*Auth, error) {
	device, err := s.devices.GetByUUID(deviceUUID)
	if err != nil {
		metrics.DeviceAuth("pin", "not_found")
		return nil, err
	}
	if !device.Active {
		s.audit.AppendFull(device.ID, models.EventLoginFailed, "device deactivated", nil, nil, ip)
		metrics.DeviceAuth("pin", "not_found")
		return nil, registry.ErrDeviceNotFound
	}

	if !utils.CheckSecretHash(pin, device.PINHash) {
		s.audit.AppendFull(device.ID, models.EventLoginFailed, "incorrect PIN", nil, nil, ip)
		metrics.DeviceAuth("pin", "invalid_pin")
		return nil, ErrInvalidPIN
	}

	if err := s.devices.Heartbeat(device.UUID, ip); err != nil {
		log.Printf("⚠️ Failed to stamp connection for %s: %v", device.Name, err)
	}

	s.audit.AppendFull(device.ID, models.EventLogin, "authenticated with PIN", nil, nil, ip)
	metrics.DeviceAuth("pin", "success")
	log.Printf("✅ Device authenticated: %s (%s)", device.Name, device.UUID)

	return s.buildAuth(device)
}

// AuthenticateWithPairingToken redeems a pairing token and returns the
// resulting device session
func (s *Service) AuthenticateWithPairingToken(token, ip string) (*Auth, error) {
	device, credential, err := s.pairing.RedeemByToken(token, ip)
	if err != nil {
		return nil, err
	}
	return s.buildAuthWithCredential(device, credential)
}

// AuthenticateWithPairingCode redeems a manual short code
func (s *Service) AuthenticateWithPairingCode(code, ip string) (*Auth, error) {
	device, credential, err := s.pairing.RedeemByCode(code, ip)
	if err != nil {
		return nil, err
	}
	return s.buildAuthWithCredential(device, credential)
}

// AuthenticateQuickStart binds an employee (by email or national id) to any
// free device for the shift
func (s *Service) AuthenticateQuickStart(identifier, ip string) (*Auth, error) {
	employee, err := s.employees.FindByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if employee == nil || !employee.Active {
		metrics.DeviceAuth("quickstart", "no_employee")
		return nil, ErrNoEmployeeMatch
	}

	device, err := s.devices.AcquireQuickStart(employee)
	if err != nil {
		if errors.Is(err, registry.ErrNoDeviceAvailable) {
			metrics.DeviceAuth("quickstart", "no_device")
		}
		return nil, err
	}

	s.audit.AppendFull(device.ID, models.EventLogin,
		fmt.Sprintf("quick start login: %s", employee.Name), &employee.ID, nil, ip)
	metrics.DeviceAuth("quickstart", "success")

	return s.buildAuth(device)
}

func (s *Service) buildAuth(device *models.Device) (*Auth, error) {
	credential, err := utils.GenerateDeviceToken(device.UUID, s.deviceTokenTTL, s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue device credential: %w", err)
	}
	return s.buildAuthWithCredential(device, credential)
}

func (s *Service) buildAuthWithCredential(device *models.Device, credential string) (*Auth, error) {
	cfg, err := s.ConfigSnapshot(device)
	if err != nil {
		return nil, err
	}
	return &Auth{
		DeviceToken: credential,
		TokenType:   "Bearer",
		Device:      device,
		Config:      cfg,
	}, nil
}

// ConfigSnapshot assembles everything a terminal needs to start selling:
// capabilities, permissions, the open cash session and the offline product
// cache. Shared tablets additionally receive the active staff roster.
func (s *Service) ConfigSnapshot(device *models.Device) (*DeviceConfig, error) {
	products, err := s.catalog.ActiveProducts()
	if err != nil {
		return nil, err
	}

	sessionID, err := s.catalog.OpenCashSession()
	if err != nil {
		return nil, err
	}

	cfg := &DeviceConfig{
		DeviceID:            device.ID,
		DefaultCategories:   device.DefaultCategories,
		Permissions:         device.Permissions,
		HasBarcodeReader:    device.HasBarcodeReader,
		HasCashDrawer:       device.HasCashDrawer,
		HasCustomerDisplay:  device.HasCustomerDisplay,
		OfflineModeEnabled:  device.OfflineModeEnabled,
		SharedTabletMode:    device.SharedTabletMode,
		ActiveCashSessionID: sessionID,
		PreloadedProducts:   products,
	}

	if device.SharedTabletMode {
		employees, err := s.employees.ListActive()
		if err != nil {
			return nil, err
		}
		for i := range employees {
			e := &employees[i]
			cfg.ActiveEmployees = append(cfg.ActiveEmployees, EmployeeSummary{
				ID:       e.ID,
				Name:     e.Name,
				Surname:  e.Surname,
				Initials: e.Initials(),
				Position: e.Position,
			})
		}
	}

	return cfg, nil
}
