package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"ecom_stationery/internal/auth"
	"ecom_stationery/internal/catalog"
	"ecom_stationery/internal/config"
	"ecom_stationery/internal/coupon"
	forgotPassword "ecom_stationery/internal/http_server/handlers/forgot_password"
	"ecom_stationery/internal/http_server/handlers/health"
	"ecom_stationery/internal/http_server/handlers/login"
	"ecom_stationery/internal/http_server/handlers/me"
	"ecom_stationery/internal/http_server/handlers/products"
	resetPassword "ecom_stationery/internal/http_server/handlers/reset_password"
	sendLoginOTP "ecom_stationery/internal/http_server/handlers/send_login_otp"
	sendOTP "ecom_stationery/internal/http_server/handlers/send_otp"
	"ecom_stationery/internal/http_server/handlers/signup"
	validateCoupon "ecom_stationery/internal/http_server/handlers/validate_coupon"
	verifyLoginOTP "ecom_stationery/internal/http_server/handlers/verify_login_otp"
	verifyOTP "ecom_stationery/internal/http_server/handlers/verify_otp"
	verifySignupOTP "ecom_stationery/internal/http_server/handlers/verify_signup_otp"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/lib/password"
	rateLimit "ecom_stationery/internal/middleware/ratelimit"
	"ecom_stationery/internal/notify"
	"ecom_stationery/internal/otp"
	"ecom_stationery/internal/rabbitmq"
	"ecom_stationery/internal/storage/ephemeral"
	"ecom_stationery/internal/storage/postgres"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

func main() {
	cfg := config.MustLoad(configPath())

	log := sl.Setup(cfg.Env, sl.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	log.Info("starting ecom_stationery", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	kv, cache := ephemeral.New(ctx, log, cfg.Redis)
	defer kv.Close()

	publisher, closePublisher, err := setupPublisher(log, cfg)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer closePublisher()

	authService := auth.New(
		log,
		storage,
		storage,
		kv,
		otp.New(kv, cfg.OTP.TTL),
		publisher,
		password.New(cfg.Password.Scheme),
		auth.Options{
			SessionTTL:       cfg.Session.TTL,
			LegacySessionTTL: cfg.Session.LegacyTTL,
			SignupPayloadTTL: cfg.OTP.SignupPayloadTTL,
			ExposeCode:       cfg.OTP.ExposeCode,
		},
	)

	shop, err := catalog.Load()
	if err != nil {
		log.Error("failed to load catalog", sl.Err(err))
		os.Exit(1)
	}

	router := setupRouter(log, authService, shop, coupon.Default(), cache, cfg.HTTPServer.RequestTimeout)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	return "./config/config.yaml"
}

func setupPublisher(log *slog.Logger, cfg *config.Config) (auth.Publisher, func(), error) {
	if cfg.OTP.Delivery != config.DeliveryRabbitMQ {
		log.Warn("otp delivery is log only")
		return notify.NewLogPublisher(log, cfg.OTP.ExposeCode), func() {}, nil
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, cfg.OTP.TTL)
	if err != nil {
		return nil, nil, err
	}

	return msgBroker, msgBroker.Close, nil
}

func newValidator() *validator.Validate {
	v := validator.New()

	// report json field names in validation errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	shop *catalog.Catalog,
	coupons *coupon.Book,
	cache string,
	timeout time.Duration,
) *chi.Mux {
	validate := newValidator()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.With(rateLimit.SendOTP()).Post("/send-otp", sendOTP.New(log, validate, authService, timeout))
		r.With(rateLimit.VerifyOTP()).Post("/verify-otp", verifyOTP.New(log, validate, authService, timeout))

		r.With(rateLimit.SendOTP()).Post("/signup", signup.New(log, validate, authService, timeout))
		r.With(rateLimit.VerifyOTP()).Post("/verify-signup-otp", verifySignupOTP.New(log, validate, authService, timeout))

		r.With(rateLimit.Login()).Post("/login", login.New(log, validate, authService, timeout))
		r.With(rateLimit.SendOTP()).Post("/send-login-otp", sendLoginOTP.New(log, validate, authService, timeout))
		r.With(rateLimit.VerifyOTP()).Post("/verify-login-otp", verifyLoginOTP.New(log, validate, authService, timeout))

		r.With(rateLimit.SendOTP()).Post("/forgot-password", forgotPassword.New(log, validate, authService, timeout))
		r.With(rateLimit.VerifyOTP()).Post("/reset-password", resetPassword.New(log, validate, authService, timeout))

		r.With(rateLimit.Coupon()).Post("/validate-coupon", validateCoupon.New(log, coupons))
		r.Get("/products", products.New(shop))
		r.Get("/health", health.New(cache, time.Now))
		r.Get("/me", me.New(log, authService, timeout))
	})

	return r
}
