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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/akozlov/clothes-shop/internal/apperr"
	"github.com/akozlov/clothes-shop/internal/config"
	"github.com/akozlov/clothes-shop/internal/handlers"
	"github.com/akozlov/clothes-shop/internal/httpserver"
	"github.com/akozlov/clothes-shop/internal/logging"
	"github.com/akozlov/clothes-shop/internal/media"
	"github.com/akozlov/clothes-shop/internal/mykafka"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.S3_ENDPOINT, "S3_ENDPOINT")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	mediaHost, err := media.NewS3Host(context.Background(), media.S3Config{
		Endpoint:  configuration.S3_ENDPOINT,
		Region:    configuration.S3_REGION,
		AccessKey: configuration.S3_ACCESS_KEY,
		SecretKey: configuration.S3_SECRET_KEY,
		Bucket:    configuration.S3_BUCKET,
	})
	if err != nil {
		log.Fatalf("media host init: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.BodyLimit("5M"),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}),
		logging.RequestLogger(logger),
	)

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:        db,
			JWTSecret: jwtSecret,
			TokenTTL:  configuration.JWT_EXPIRES_IN,
			Secure:    configuration.IsProduction(),
			Producer:  producer,
		},
		ProductHandler: &handlers.ProductHandler{
			DB:       db,
			Media:    mediaHost,
			Producer: producer,
		},
		JWTSecret: jwtSecret,
	})

	srv := &http.Server{
		Addr:         ":" + configuration.SERVER_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", configuration.SERVER_PORT, "env", configuration.APP_ENV)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
