package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"

	"ticket-wallet/config"
	"ticket-wallet/handlers"
	"ticket-wallet/monitoring"
	"ticket-wallet/security"
	"ticket-wallet/services"
	"ticket-wallet/store"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	if cfg.Environment == "development" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Open the embedded store; corrupt or missing data resets to seeds.
	st, err := store.Open(cfg.DataPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}

	// Initialize services
	ticketService := services.NewTicketService(st, cfg)
	scheduler := services.NewRotationScheduler(ticketService, cfg.QRValidityWindow)
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(ticketService, tokens)
	ticketHandler := handlers.NewTicketHandler(ticketService, scheduler)

	// Register routes
	e := echo.New()

	e.POST("/api/auth/login", authHandler.Login,
		security.LoginRateLimit(cfg.LoginRateLimit, cfg.LoginRateWindow))
	e.GET("/api/events", ticketHandler.GetEvents)
	e.GET("/api/ticket-types", ticketHandler.GetTicketTypes)

	authed := e.Group("/api", tokens.Middleware())
	authed.GET("/tickets", ticketHandler.GetTicketHistory)
	authed.POST("/tickets", ticketHandler.PurchaseTicket)
	authed.POST("/tickets/rotate", ticketHandler.RotateQR)
	authed.POST("/tickets/transfer", ticketHandler.InitiateTransfer)
	authed.POST("/tickets/transfer/cancel", ticketHandler.CancelTransfer)
	authed.POST("/transfers/redeem", ticketHandler.RedeemTransfer)
	authed.POST("/tickets/watch", ticketHandler.WatchTicket)
	authed.POST("/tickets/unwatch", ticketHandler.UnwatchTicket)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	// Metrics
	if cfg.EnableMetrics {
		go monitoring.Serve(cfg.MetricsPort)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	// Setup graceful shutdown
	go handleShutdown(srv, scheduler)

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("server stopped")
	}

	// Final flush before exit.
	if err := st.Close(); err != nil {
		logrus.WithError(err).Error("final store flush failed")
	}
	logrus.Info("shutdown complete")
}

// handleShutdown cancels pending rotations and drains the HTTP server
// on SIGINT/SIGTERM.
func handleShutdown(srv *http.Server, scheduler *services.RotationScheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logrus.Info("shutdown signal received, cleaning up...")

	scheduler.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("server shutdown failed")
	}
}
