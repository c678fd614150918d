package main

import (
	"fmt"
	"log"
	"time"

	"github.com/clubnova/clubposgo/internal/config"
	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/utils"
)

func main() {
	fmt.Println("🌱 ClubPOS Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Device{},
		&models.Employee{},
		&models.Product{},
		&models.CashSession{},
		&models.Sale{},
		&models.SaleLine{},
		&models.OfflineSale{},
		&models.DeviceLogEntry{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	// Check if data already exists
	var employeeCount int64
	db.Model(&models.Employee{}).Count(&employeeCount)
	if employeeCount > 0 {
		fmt.Printf("⚠️  Database already has %d employees. Clear it first? (y/N): ", employeeCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		db.Exec("TRUNCATE devices, employees, products, cash_sessions, sales, sale_lines, offline_sales, device_log_entries RESTART IDENTITY CASCADE")
		fmt.Println("🗑️ Cleared existing data")
	}

	seedStaff(db)
	seedEmployees(db)
	seedProducts(db)
	seedDevices(db)
	seedCashSession(db)

	fmt.Println()
	fmt.Println("✅ Demo data seeded. Admin login: admin / admin123")
}

func seedStaff(db *database.DB) {
	hash, _ := utils.HashSecret("admin123")
	admin := models.UserAuth{
		Username: "admin",
		Password: hash,
		Email:    "admin@clubnova.example",
		Role:     "admin",
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("❌ Failed to seed admin user: %v", err)
	}
	fmt.Println("👤 Seeded admin user")
}

func seedEmployees(db *database.DB) {
	employees := []models.Employee{
		{Name: "Lucia", Surname: "Romero", Email: "lucia@clubnova.example", NationalID: "45112233X", Position: "bar lead", Active: true},
		{Name: "Marco", Surname: "Delgado", Email: "marco@clubnova.example", NationalID: "39887766K", Position: "bartender", Active: true},
		{Name: "Ana", Surname: "Vidal", Email: "ana@clubnova.example", NationalID: "51443322T", Position: "waiter", Active: true},
	}
	for i := range employees {
		if err := db.Create(&employees[i]).Error; err != nil {
			log.Fatalf("❌ Failed to seed employee: %v", err)
		}
	}
	fmt.Printf("👥 Seeded %d employees\n", len(employees))
}

func seedProducts(db *database.DB) {
	products := []models.Product{
		{Name: "Gin Tonic", Category: "cocktails", SalePrice: 12.00, Stock: 200, Active: true},
		{Name: "Mojito", Category: "cocktails", SalePrice: 11.00, Stock: 150, Active: true},
		{Name: "Beer (draft)", Category: "beer", SalePrice: 6.00, Stock: 500, Active: true},
		{Name: "Water", Category: "soft", SalePrice: 3.00, Stock: 300, Active: true},
		{Name: "Red Bull", Category: "soft", SalePrice: 5.00, Stock: 250, Active: true},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatalf("❌ Failed to seed product: %v", err)
		}
	}
	fmt.Printf("🍸 Seeded %d products\n", len(products))
}

func seedDevices(db *database.DB) {
	pinHash, _ := utils.HashSecret("4821")
	devices := []models.Device{
		{
			UUID:               "1b671a64-40d5-491e-99b0-da01ff1f3341",
			Name:               "Main Bar Left",
			Class:              models.DeviceClassFixed,
			Location:           "main bar",
			PINHash:            pinHash,
			HasBarcodeReader:   true,
			HasCashDrawer:      true,
			OfflineModeEnabled: true,
			Active:             true,
			Binding:            models.BindingUnassigned,
		},
		{
			UUID:               "9d2f7e11-3c55-4a8f-b4d2-6f0a8f3f9c02",
			Name:               "Terrace Tablet",
			Class:              models.DeviceClassMobile,
			Location:           "terrace",
			PINHash:            pinHash,
			SharedTabletMode:   true,
			OfflineModeEnabled: true,
			Active:             true,
			Binding:            models.BindingUnassigned,
		},
	}
	for i := range devices {
		if err := db.Create(&devices[i]).Error; err != nil {
			log.Fatalf("❌ Failed to seed device: %v", err)
		}
	}
	fmt.Printf("📱 Seeded %d devices (PIN 4821)\n", len(devices))
}

func seedCashSession(db *database.DB) {
	session := models.CashSession{
		OpenedAt: time.Now(),
		Status:   "open",
	}
	if err := db.Create(&session).Error; err != nil {
		log.Fatalf("❌ Failed to seed cash session: %v", err)
	}
	fmt.Println("💶 Opened demo cash session")
}
