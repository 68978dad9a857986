package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront-go/checkout/internal/cart"
	"github.com/storefront-go/checkout/internal/catalog"
	"github.com/storefront-go/checkout/internal/checkout"
	"github.com/storefront-go/checkout/internal/gateway/stripe"
	"github.com/storefront-go/checkout/internal/httpx"
	ordersqlite "github.com/storefront-go/checkout/internal/order/sqlite"
	"github.com/storefront-go/checkout/internal/pkg/telemetry"
	"github.com/storefront-go/checkout/internal/webhook"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "storefront"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	handler, err := buildHandler()
	if err != nil {
		slog.Error("failed to wire storefront", "error", err)
		os.Exit(1)
	}

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:           addr,
		Handler:        httpx.NewRouter(handler),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("storefront running", "addr", addr, "ui_mode", getEnv("CHECKOUT_UI_MODE", "hosted"))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// buildHandler assembles the cart, checkout and webhook stack from the
// environment.
func buildHandler() (*httpx.Handler, error) {
	cat, err := catalog.LoadFile(getEnv("PRODUCTS_FILE", "products.json"))
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}

	var sessions cart.SessionStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		sessions = cart.NewRedisStore(redisAddr, cart.DefaultSessionTTL)
	} else {
		// Single-process fallback for local dev; carts die with the process.
		sessions = cart.NewMemoryStore()
	}

	carts, err := cart.NewService(cat, sessions, getEnv("CURRENCY", "EUR"))
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	orders, err := ordersqlite.Open(getEnv("ORDERS_DB", "orders.db"))
	if err != nil {
		return nil, fmt.Errorf("open order store: %w", err)
	}

	gateway := stripe.New(
		mustEnv("STRIPE_SECRET_KEY"),
		mustEnv("STRIPE_WEBHOOK_SECRET"),
	)

	checkoutCfg, err := checkoutConfigFromEnv()
	if err != nil {
		return nil, err
	}

	shipping, err := loadShipping(os.Getenv("SHIPPING_FILE"))
	if err != nil {
		return nil, fmt.Errorf("load shipping config: %w", err)
	}

	return httpx.NewHandler(
		carts,
		checkout.NewBuilder(),
		gateway,
		webhook.New(orders),
		shipping,
		checkoutCfg,
		stripe.ExpandForReconciliation,
	), nil
}

func checkoutConfigFromEnv() (checkout.Config, error) {
	switch mode := getEnv("CHECKOUT_UI_MODE", "hosted"); mode {
	case "hosted":
		return checkout.HostedConfig{
			SuccessURL: mustEnv("CHECKOUT_SUCCESS_URL"),
			CancelURL:  mustEnv("CHECKOUT_CANCEL_URL"),
		}, nil
	case "embedded":
		return checkout.EmbeddedConfig{
			ReturnURL: mustEnv("CHECKOUT_RETURN_URL"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown CHECKOUT_UI_MODE %q", mode)
	}
}

// loadShipping reads the shipping rate configuration; no file means shipping
// collection stays disabled.
func loadShipping(path string) (checkout.ShippingConfig, error) {
	if path == "" {
		return checkout.ShippingConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return checkout.ShippingConfig{}, err
	}

	var cfg checkout.ShippingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return checkout.ShippingConfig{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("required environment variable missing", "key", key)
		os.Exit(1)
	}
	return value
}
