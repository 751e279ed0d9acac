package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"ticket-booking/config"
	"ticket-booking/handlers"
	"ticket-booking/internal/gateway"
	"ticket-booking/services"
	"ticket-booking/utils"
)

// Start wires the engine together and runs the PocketBase app.
func Start() error {
	app := pocketbase.New()
	cfg := config.LoadConfig()

	redisClient, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	provider, err := gateway.New(cfg.GatewayProvider)
	if err != nil {
		return err
	}
	resilient := gateway.NewResilient(provider)

	store := services.NewPBStore(app)
	ledger := services.NewLedger()
	gate := services.NewAvailabilityGate(redisClient)

	reservations := services.NewReservationService(store, ledger, gate, cfg.HoldTTL)
	issuer := services.NewTicketService(cfg.TicketSigningKey)
	orders := services.NewOrderService(store, issuer, gate, cfg.GatewayProvider)
	reaper := services.NewReaper(store, gate, cfg.ReaperInterval)
	reconciler := services.NewReconciler(store, ledger, gate, cfg.ReconcileInterval)

	reservationHandler := handlers.NewReservationHandler(reservations)
	orderHandler := handlers.NewOrderHandler(orders, resilient, cfg.Currency)
	paymentHandler := handlers.NewPaymentHandler(orders, cfg.WebhookSecretHash, cfg.WebhookSigningKey, cfg.Environment == "development")

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel)

	if cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId("ticket-booking-engine"))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		pn := pubnub.NewPubNub(pnConfig)
		listener := gateway.NewOutcomeListener(pn, cfg.PaymentChannel, orders)
		go listener.Listen(ctx)
	}

	go reaper.Run(ctx)
	go reconciler.Run(ctx)

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Reservations
		e.Router.POST("/api/reservations", reservationHandler.Reserve)
		e.Router.GET("/api/reservations", reservationHandler.History)
		e.Router.GET("/api/reservations/{id}", reservationHandler.Get)
		e.Router.DELETE("/api/reservations/{id}", reservationHandler.Cancel)

		// Orders
		e.Router.POST("/api/reservations/{id}/checkout", orderHandler.Checkout)
		e.Router.GET("/api/orders", orderHandler.History)
		e.Router.GET("/api/orders/{id}", orderHandler.Detail)

		// Availability
		e.Router.GET("/api/ticket-types/{ticketTypeId}/availability", reservationHandler.Availability)

		// Payment outcome delivery
		e.Router.POST("/api/payments/callback", paymentHandler.Callback)
		e.Router.GET("/api/payments/{transactionId}/status", paymentHandler.Status)

		if cfg.Environment == "development" {
			e.Router.POST("/api/test/simulate-payment", paymentHandler.Simulate)
		}

		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")
		return e.Next()
	})

	return app.Start()
}

func serveMetrics(port string) {
	e := echo.New()
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics server stopped: %v", err)
	}
}

// handleShutdown cancels background loops on SIGINT/SIGTERM.
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
