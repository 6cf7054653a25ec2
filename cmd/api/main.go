package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brimasouk/internal/auth"
	"brimasouk/internal/client"
	"brimasouk/internal/config"
	"brimasouk/internal/logger"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"
	"brimasouk/internal/server"
	"brimasouk/internal/service"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	l := logger.New(cfg.Log)

	db, err := client.InitDBClient(cfg.Database, l)
	if err != nil {
		l.WithError(err).Fatal("Failed to init database")
	}

	gateway, err := client.NewPaymentGateway(cfg, l)
	if err != nil {
		l.WithError(err).Fatal("Failed to init payment gateway")
	}

	policy, err := auth.NewPolicy()
	if err != nil {
		l.WithError(err).Fatal("Failed to load role policy")
	}

	notifier := notify.NewNotifier(cfg.Notification, l)
	tokens := auth.NewTokenManager(cfg.Auth)

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	promoRepo := repository.NewPromoCodeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	eventRepo := repository.NewEventRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	cartRepo := repository.NewCartRepository(db)

	userService := service.NewUserService(l, tokens, userRepo)
	services := server.Services{
		Users:      userService,
		Products:   service.NewProductService(l, notifier, productRepo, userRepo),
		Carts:      service.NewCartService(cartRepo, productRepo),
		PromoCodes: service.NewPromoCodeService(l, promoRepo, userRepo),
		Orders: service.NewOrderService(
			db, l, cfg.Order, cfg.Payment.Currency, gateway, notifier,
			orderRepo, productRepo, promoRepo, cartRepo, userRepo, eventRepo,
		),
		Events: service.NewEventService(db, l, notifier, eventRepo, reservationRepo, userRepo),
		Admin:  service.NewAdminService(l, notifier, userRepo, productRepo, eventRepo, orderRepo),
	}

	if err := userService.SeedAdmin(context.Background(), cfg.Admin); err != nil {
		l.WithError(err).Fatal("Failed to seed admin")
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, l, policy, services)

	l.WithFields(log.Fields{
		"addr":     serverAddr,
		"env":      cfg.Environment.Name,
		"payments": cfg.Payment.Provider,
	}).Info("Starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	l.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("HTTP server shutdown error")
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		l.WithError(err).Warn("Pending notifications dropped")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
