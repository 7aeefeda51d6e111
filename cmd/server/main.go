package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/config"
	"github.com/avbottsubscription-dev/canteencouponang/internal/db"
	"github.com/avbottsubscription-dev/canteencouponang/internal/handler"
	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/avbottsubscription-dev/canteencouponang/internal/push"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server"
	"github.com/avbottsubscription-dev/canteencouponang/internal/service"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"google.golang.org/api/option"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	remote, err := store.NewPostgres(ctx, pg, logger)
	if err != nil {
		logger.Error("failed to prepare document store", "err", err)
		os.Exit(1)
	}

	var mailer mail.Mailer
	if cfg.SMTPEnabled {
		mailer = mail.NewSMTP(mail.Settings{
			Enabled:        true,
			FromAddress:    cfg.MailFrom,
			ReplyToAddress: cfg.MailReplyTo,
			Host:           cfg.SMTPHost,
			Port:           cfg.SMTPPort,
			User:           cfg.SMTPUser,
			Password:       cfg.SMTPPassword,
		}, logger)
	} else {
		mailer = &mail.Log{Logger: logger}
	}

	// Firebase Cloud Messaging (optional)
	var sender *push.Sender
	if cfg.FirebaseProjectID != "" {
		client, err := messagingClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to init firebase messaging", "err", err)
			os.Exit(1)
		}
		sender = push.NewSender(client, logger)
	}

	st := state.New()
	svc := canteen.NewService(st, remote, mailer, sender, logger)
	svc.Load(ctx)
	if err := svc.StartRealtime(ctx); err != nil {
		logger.Warn("realtime subscriptions unavailable", "err", err)
	}

	authSvc := service.AuthService{Config: cfg, State: st, Canteen: svc, Logger: logger}

	router := server.NewRouter(cfg, logger,
		handler.HealthHandler{DB: pg},
		handler.AuthHandler{Service: &authSvc},
		handler.EmployeeHandler{State: st, Service: svc},
		handler.ContractorHandler{State: st, Service: svc},
		handler.CouponHandler{State: st, Service: svc},
		handler.GuestHandler{Service: svc},
		handler.NotificationHandler{Service: svc},
		handler.PunchHandler{State: st},
		handler.DashboardHandler{State: st},
		handler.MenuHandler{State: st, Service: svc},
		handler.EmailHandler{Mailer: mailer},
		handler.DeviceHandler{Push: sender},
	)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func messagingClient(ctx context.Context, cfg config.Config) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	return app.Messaging(ctx)
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
