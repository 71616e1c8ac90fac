package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LivingHopeDev/Inventory-system/handlers"
	"github.com/LivingHopeDev/Inventory-system/internal/auth"
	"github.com/LivingHopeDev/Inventory-system/internal/cart"
	"github.com/LivingHopeDev/Inventory-system/internal/consul"
	"github.com/LivingHopeDev/Inventory-system/internal/orders"
	"github.com/LivingHopeDev/Inventory-system/internal/products"
	"github.com/LivingHopeDev/Inventory-system/internal/stores/kafka"
	"github.com/LivingHopeDev/Inventory-system/internal/stores/postgres"
	"github.com/LivingHopeDev/Inventory-system/internal/users"
	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"
)

const serviceName = "inventory"

func main() {
	if err := run(); err != nil {
		slog.Error("service failed to start", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	privatePEM, err := os.ReadFile(os.Getenv("AUTH_PRIVATE_KEY_FILE"))
	if err != nil {
		return err
	}
	publicPEM, err := os.ReadFile(os.Getenv("AUTH_PUBLIC_KEY_FILE"))
	if err != nil {
		return err
	}
	keys, err := auth.NewKeys(privatePEM, publicPEM)
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	kafkaConf, err := kafka.NewConf(brokers)
	if err != nil {
		return err
	}
	defer kafkaConf.Close()

	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	productsConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db, kafkaConf)
	if err != nil {
		return err
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	registerWithConsul(port)

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/api/v1"
	}

	api, err := handlers.API(prefix, keys, usersConf, &productsConf, &cartConf, ordersConf)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)
	go func() {
		slog.Info("server started", slog.String("Port", port))
		shutdown <- server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-shutdown:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			return err
		}
	}

	return nil
}

// registerWithConsul is best effort: the API stays up even when the agent is
// unreachable.
func registerWithConsul(port string) {
	client, err := consul.NewClient()
	if err != nil {
		slog.Error("consul client unavailable", slog.String(logkey.ERROR, err.Error()))
		return
	}

	address := os.Getenv("APP_HOST")
	if address == "" {
		address = "localhost"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		slog.Error("invalid port for consul registration", slog.String(logkey.ERROR, err.Error()))
		return
	}

	if err := consul.RegisterService(client, serviceName, address, portNum); err != nil {
		slog.Error("consul registration failed", slog.String(logkey.ERROR, err.Error()))
	}
}
