package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/config"
	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/deviceauth"
	"github.com/clubnova/clubposgo/internal/handlers"
	"github.com/clubnova/clubposgo/internal/ingest"
	"github.com/clubnova/clubposgo/internal/metrics"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/pairing"
	"github.com/clubnova/clubposgo/internal/registry"
	"github.com/clubnova/clubposgo/internal/store"
	"github.com/clubnova/clubposgo/internal/syncqueue"
	"github.com/clubnova/clubposgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	log.Println("🚀 Synchronizing database schema...")
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
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Metrics registry
	metrics.Init()

	// 5. Monitor feed
	hub := websocket.NewHub()
	go hub.Run()

	// 6. Wire services
	auditWriter := audit.NewWriter(audit.NewGormStore(db), hub)

	deviceStore := store.NewDevices(db)
	saleStore := store.NewOfflineSales(db)
	employeeStore := store.NewEmployees(db)
	catalogStore := store.NewCatalog(db)

	registrySvc := registry.NewService(deviceStore, saleStore, auditWriter)
	pairingSvc := pairing.NewService(registrySvc, auditWriter, cfg.JWTSecret, cfg.BaseURL, cfg.Pairing.Validity, cfg.Pairing.DeviceTokenTTL)
	authSvc := deviceauth.NewService(registrySvc, pairingSvc, employeeStore, catalogStore, auditWriter, cfg.JWTSecret, cfg.Pairing.DeviceTokenTTL)

	ingestSvc := ingest.NewService(db)
	syncSvc := syncqueue.NewService(saleStore, ingestSvc, registrySvc, auditWriter, cfg.Sync.IngestTimeout, cfg.Sync.MaxAttempts)

	// 7. Background retry driver
	log.Println("🔄 Starting sync reconciler...")
	reconciler := syncqueue.NewReconciler(syncSvc, cfg.Sync.PollInterval)
	reconciler.Start()

	// 8. HTTP router
	router := handlers.NewRouter(cfg, db, registrySvc, pairingSvc, authSvc, syncSvc, auditWriter, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server (%s) starting on port %s\n", cfg.Env, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown error: %v", err)
	}

	reconciler.Stop()

	if err := db.Close(); err != nil {
		log.Printf("⚠️ Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
