package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/app"
	"github.com/Freeeeeet/schedule_registrations/internal/config"
	"github.com/Freeeeeet/schedule_registrations/internal/controller"
	"github.com/Freeeeeet/schedule_registrations/internal/controller/httpapi"
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/payment"
	"github.com/Freeeeeet/schedule_registrations/internal/repository"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/cache"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores - репозитории выбранного драйвера хранилища
type stores struct {
	schedules     service.ScheduleStore
	registrations service.RegistrationStore
	tutors        service.TutorStore
	users         service.UserStore
	admins        service.AdminStore
	notifications service.NotificationStore
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.AppName)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting schedule registrations server",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("addr", cfg.HTTPAddr))

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var principals service.PrincipalCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, principal cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			principals = cache.NewPrincipalCache(rdb, cfg.PrincipalCacheTTL)
			logger.Info("Principal cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		if tgBot, err = bot.New(cfg.TelegramToken); err != nil {
			return err
		}
	}

	notifications := service.NewNotificationService(st.notifications, st.users, buildNotifier(cfg, tgBot, logger),
		cfg.NotifyBatchSize, cfg.NotifyMaxAttempts, logger)

	var links payment.LinkGenerator
	if cfg.MidtransServerKey != "" {
		links = payment.NewMidtransGenerator(cfg.MidtransServerKey, cfg.MidtransProduction)
		logger.Info("Midtrans payment links enabled", zap.Bool("production", cfg.MidtransProduction))
	}

	auth := service.NewAuthService(st.admins, principals, cfg.JWTSecret, cfg.JWTTTL, logger)
	registrations := service.NewRegistrationService(st.registrations, st.schedules, st.users, st.tutors, notifications, links, logger)
	schedules := service.NewScheduleService(st.schedules, st.registrations, st.tutors, notifications, logger)
	tutors := service.NewTutorService(st.tutors, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		admin := &model.Admin{Email: cfg.AdminEmail, FullName: "Administrator", Role: model.RoleAdmin}
		if err := auth.CreateAdmin(ctx, admin, cfg.AdminPassword); err != nil {
			return err
		}
	}

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, registrations, logger.Named("bot"))
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands not registered", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	dispatcher := app.NewDispatcher(notifications, cfg.NotifyInterval, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	server := httpapi.NewServer(httpapi.Options{
		Addr:          cfg.HTTPAddr,
		Debug:         cfg.Environment != "production",
		Logger:        logger.Named("http"),
		Auth:          auth,
		Schedules:     schedules,
		Registrations: registrations,
		Tutors:        tutors,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		if err := store.SeedDemo(ctx); err != nil {
			return nil, err
		}
		logger.Warn("Using in-memory storage with demo data, nothing is persisted")
		return &stores{
			schedules:     store.Schedules,
			registrations: store.Registrations,
			tutors:        store.Tutors,
			users:         store.Users,
			admins:        store.Admins,
			notifications: store.Notifications,
			close:         func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	// *sql.DB мигратора нужен только на время Up, пул остаётся открытым
	err = migrator.Up(ctx)
	if cerr := migrator.Close(); cerr != nil {
		logger.Warn("Failed to close migrator", zap.Error(cerr))
	}
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		schedules:     repository.NewScheduleRepository(pool),
		registrations: repository.NewRegistrationRepository(pool),
		tutors:        repository.NewTutorRepository(pool),
		users:         repository.NewUserRepository(pool),
		admins:        repository.NewAdminRepository(pool),
		notifications: repository.NewNotificationRepository(pool),
		close:         pool.Close,
	}, nil
}

// buildNotifier собирает каналы доставки; без каналов сообщения только пишутся в лог
func buildNotifier(cfg *config.Config, tgBot *bot.Bot, logger *zap.Logger) notify.Notifier {
	var channels notify.Multi
	if tgBot != nil {
		channels = append(channels, notify.NewTelegramNotifier(tgBot))
	}
	if cfg.SendGridAPIKey != "" {
		channels = append(channels, notify.NewEmailNotifier(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFrom))
	}
	if len(channels) == 0 {
		logger.Warn("No notification channels configured, messages go to the log")
		channels = append(channels, notify.NewLogNotifier(logger.Named("notify")))
	}
	return channels
}
