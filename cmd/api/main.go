// Harambee Donations Service
//
// This is the main entry point for the donation processing service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harambee/harambee-donations/config"
	"github.com/harambee/harambee-donations/internal/api"
	"github.com/harambee/harambee-donations/internal/domain"
	"github.com/harambee/harambee-donations/internal/donation"
	"github.com/harambee/harambee-donations/internal/platform/mailer"
	"github.com/harambee/harambee-donations/internal/platform/pesapal"
	"github.com/harambee/harambee-donations/internal/platform/postgres"
)

func main() {
	log.Println("Starting Harambee Donations Service...")

	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded: Port=%s, Environment=%s", cfg.Server.Port, cfg.Pesapal.Environment)

	// Validate required configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	db, err := postgres.Open(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	repo := postgres.NewRepository(db)

	gateway := pesapal.NewClient(
		pesapal.BaseURLFor(cfg.Pesapal.Environment),
		cfg.Pesapal.ConsumerKey,
		cfg.Pesapal.ConsumerSecret,
	)

	// Receipts are optional: without SMTP settings the service runs fine,
	// donors just get no email.
	var receipts domain.ReceiptSender
	if cfg.SMTP.Host != "" {
		sender, err := mailer.NewSender(
			cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password,
			cfg.SMTP.From, cfg.SMTP.FromName,
		)
		if err != nil {
			log.Fatalf("Mailer error: %v", err)
		}
		receipts = sender
	} else {
		log.Println("SMTP_HOST not set, donation receipts disabled")
	}

	// Service Layer
	donationService := donation.NewService(repo, gateway, receipts, donation.Options{
		Currency:    cfg.Donation.Currency,
		CallbackURL: cfg.Pesapal.CallbackURL,
		IPNURL:      cfg.Pesapal.IPNURL,
	})

	// API Layer
	handler := api.NewHandler(donationService)
	router := api.SetupRouter(handler, cfg.Server.GinMode, cfg.Admin.APIKey)

	// Start server in a goroutine
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Pesapal.ConsumerKey == "" || cfg.Pesapal.ConsumerSecret == "" {
		return fmt.Errorf("PESAPAL_CONSUMER_KEY and PESAPAL_CONSUMER_SECRET are required")
	}
	if cfg.Pesapal.CallbackURL == "" || cfg.Pesapal.IPNURL == "" {
		return fmt.Errorf("PESAPAL_CALLBACK_URL and PESAPAL_IPN_URL are required")
	}
	if cfg.Admin.APIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set, admin endpoints will reject all requests")
	}
	return nil
}
