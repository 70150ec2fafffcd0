package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qrvisit/qrvisit/internal/api"
	"github.com/qrvisit/qrvisit/internal/auth"
	"github.com/qrvisit/qrvisit/internal/billing"
	"github.com/qrvisit/qrvisit/internal/config"
	"github.com/qrvisit/qrvisit/internal/profile"
	"github.com/qrvisit/qrvisit/internal/qr"
	"github.com/qrvisit/qrvisit/internal/storage"
	"github.com/qrvisit/qrvisit/internal/store"
)

func main() {
	// Parse command-line flags
	testMode := flag.Bool("test-mode", false, "Run in test mode (disables authentication)")
	flag.Parse()

	if *testMode {
		log.Println("⚠️  TEST MODE: Authentication is DISABLED")
		log.Println("⚠️  Do not use --test-mode in production!")
	}

	// Load .env.localdev file if it exists (for local development)
	// Silently ignore if file doesn't exist (production uses real env vars)
	_ = godotenv.Load(".env.localdev")

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// In test mode, disable authentication
	if *testMode && cfg.Auth != nil {
		cfg.Auth.Enabled = false
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Firestore
	if cfg.Store == nil {
		log.Fatal("Store configuration (Firestore) is required")
	}
	log.Printf("Initializing Firestore client for project: %s, database: %s",
		cfg.Store.ProjectID, cfg.Store.Database)
	firestoreClient, err := store.NewFirestoreClient(ctx, store.FirestoreConfig{
		ProjectID:   cfg.Store.ProjectID,
		Database:    cfg.Store.Database,
		Credentials: cfg.Store.Credentials,
	})
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	profileRepo := profile.NewFirestoreRepository(firestoreClient.Client())

	// Initialize Cloud Storage for avatar and QR assets
	if cfg.Storage == nil {
		log.Fatal("Storage configuration (bucket) is required")
	}
	log.Printf("Initializing Cloud Storage for bucket: %s", cfg.Storage.Bucket)
	uploader, err := storage.NewGCSUploader(ctx, storage.GCSConfig{
		Bucket:      cfg.Storage.Bucket,
		Credentials: cfg.Storage.Credentials,
	})
	if err != nil {
		log.Fatalf("Failed to create storage uploader: %v", err)
	}
	defer uploader.Close()

	// Initialize authentication if configured
	var tokenVerifier auth.TokenVerifier
	if cfg.Auth != nil && cfg.Auth.Enabled {
		tenantInfo := ""
		if cfg.Auth.TenantID != "" {
			tenantInfo = ", tenant: " + cfg.Auth.TenantID
		}
		log.Printf("Initializing Firebase Auth for project: %s%s", cfg.Auth.ProjectID, tenantInfo)

		verifier, err := auth.NewFirebaseTokenVerifier(ctx, auth.FirebaseTokenVerifierConfig{
			ProjectID:       cfg.Auth.ProjectID,
			CredentialsPath: cfg.Auth.Credentials,
			TenantID:        cfg.Auth.TenantID,
		})
		if err != nil {
			log.Fatalf("Failed to create Firebase Auth verifier: %v", err)
		}
		tokenVerifier = verifier
		log.Println("Firebase Auth enabled")
	}

	// Initialize Stripe billing if configured
	var billingClient *billing.Client
	if cfg.Billing != nil {
		billingClient = billing.NewClient(cfg.Billing.SecretKey)
		log.Println("Stripe billing enabled")
	}

	profileService := profile.NewService(profileRepo, uploader, qr.NewPNGEncoder(), cfg.BaseURL)

	// Start API server
	log.Printf("Starting REST API server on %s", cfg.API.Addr)
	handler := api.NewRouter(api.RouterConfig{
		ProfileService: profileService,
		ProfileRepo:    profileRepo,
		TokenVerifier:  tokenVerifier,
		BillingClient:  billingClient,
		BillingConfig:  cfg.Billing,
	})
	apiServer := api.NewServer(cfg.API.Addr, handler)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("qrvisit - Digital Business Card Server")
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("API server error: %v", err)
		}
	}

	// Graceful shutdown
	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown error: %v", err)
	}
	log.Println("API server stopped")

	log.Println("Goodbye!")
}
