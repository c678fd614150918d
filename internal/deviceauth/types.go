package deviceauth

import "github.com/clubnova/clubposgo/internal/models"

// Auth is the unified login response for every credential strategy
type Auth struct {
	DeviceToken string         `json:"deviceToken"`
	TokenType   string         `json:"tokenType"`
	Device      *models.Device `json:"device"`
	Config      *DeviceConfig  `json:"config"`
}

// DeviceConfig is the startup snapshot a terminal caches for offline work
type DeviceConfig struct {
	DeviceID            uint              `json:"deviceId"`
	DefaultCategories   models.StringList `json:"defaultCategories"`
	Permissions         models.StringList `json:"permissions"`
	HasBarcodeReader    bool              `json:"hasBarcodeReader"`
	HasCashDrawer       bool              `json:"hasCashDrawer"`
	HasCustomerDisplay  bool              `json:"hasCustomerDisplay"`
	OfflineModeEnabled  bool              `json:"offlineModeEnabled"`
	SharedTabletMode    bool              `json:"sharedTabletMode"`
	ActiveCashSessionID *uint             `json:"activeCashSessionId,omitempty"`
	PreloadedProducts   []models.Product  `json:"preloadedProducts"`
	ActiveEmployees     []EmployeeSummary `json:"activeEmployees,omitempty"`
}

// EmployeeSummary is the roster entry shown on shared tablets
type EmployeeSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Surname  string `json:"surname,omitempty"`
	Initials string `json:"initials"`
	Position string `json:"position,omitempty"`
}
