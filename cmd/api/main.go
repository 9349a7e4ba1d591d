package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fooddirect/internal/async"
	"fooddirect/internal/cache"
	"fooddirect/internal/config"
	"fooddirect/internal/db"
	"fooddirect/internal/events"
	"fooddirect/internal/httpserver"
	"fooddirect/internal/imagehost"
	adminrepo "fooddirect/internal/repository/admin"
	couponrepo "fooddirect/internal/repository/coupon"
	customerrepo "fooddirect/internal/repository/customer"
	menurepo "fooddirect/internal/repository/menu"
	orderrepo "fooddirect/internal/repository/order"
	tokenrepo "fooddirect/internal/repository/token"
	zonerepo "fooddirect/internal/repository/zone"
	authsvc "fooddirect/internal/service/auth"
	couponsvc "fooddirect/internal/service/coupon"
	customersvc "fooddirect/internal/service/customer"
	menusvc "fooddirect/internal/service/menu"
	ordersvc "fooddirect/internal/service/order"
	zonesvc "fooddirect/internal/service/zone"
	"fooddirect/internal/whatsapp"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	dispatch := async.New(logger, 15*time.Second)

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	menuRepo := menurepo.NewPostgres(dbpool, logger)
	couponRepo := couponrepo.NewPostgres(dbpool, logger)
	zoneRepo := zonerepo.NewPostgres(dbpool, logger)
	adminRepo := adminrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	var mirror *cache.Mirror
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		mirror = cache.NewMirror(cache.NewRedisKV(rdb, 30*24*time.Hour), logger)
	}

	var publisher *events.Publisher
	if cfg.KafkaBroker != "" {
		writer := events.NewWriter(cfg.KafkaBroker, cfg.KafkaTopic)
		defer writer.Close()
		publisher = events.NewPublisher(writer)
	}

	customerService := customersvc.New(customerRepo, orderRepo, logger)

	orderDeps := ordersvc.Deps{
		Orders:    orderRepo,
		Menu:      menuRepo,
		Coupons:   couponRepo,
		Zones:     zoneRepo,
		Customers: customerService,
		Dispatch:  dispatch,
		Logger:    logger,
	}
	if mirror != nil {
		orderDeps.Mirror = mirror
	}
	if publisher != nil {
		orderDeps.Events = publisher
	}
	orderService := ordersvc.New(orderDeps)

	menuService := menusvc.New(menuRepo)
	couponService := couponsvc.New(couponRepo)
	zoneService := zonesvc.New(zoneRepo)
	authService := authsvc.New(adminRepo, tokenRepo)

	serverDeps := httpserver.Deps{
		OrderSvc:    orderService,
		MenuSvc:     menuService,
		CouponSvc:   couponService,
		ZoneSvc:     zoneService,
		CustomerSvc: customerService,
		AuthSvc:     authService,
	}
	if cfg.RestaurantPhone != "" {
		serverDeps.WhatsApp = whatsapp.NewBuilder(cfg.RestaurantPhone, cfg.RestaurantName)
	}
	if cfg.ImageHostURL != "" {
		serverDeps.Images = imagehost.New(cfg.ImageHostURL, cfg.ImageHostKey, logger)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, serverDeps)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}

	if err := dispatch.Drain(ctx); err != nil {
		logger.Printf("side effects not drained: %v", err)
	}
}
