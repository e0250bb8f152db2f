package app

import (
	"context"
	"errors"
	"fmt"
	"gw-transfer-service/internal/api/middlew"
	"gw-transfer-service/internal/grpc_server"
	"gw-transfer-service/internal/kafka"
	"gw-transfer-service/internal/storage"
	"gw-transfer-service/internal/storage/memory"
	"gw-transfer-service/pkg/logger"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gw-transfer-service/internal/api/handlers"
	"gw-transfer-service/internal/config"
	"gw-transfer-service/internal/server"
	"gw-transfer-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"google.golang.org/grpc"
)

type App struct {
	log             *slog.Logger
	logFile         *os.File
	cfg             *config.Config
	server          *server.Server
	healthServer    *grpc_server.HealthServer
	accounts        storage.AccountLedger
	transfers       storage.TransferLedger
	validator       *service.DebitTransferValidator
	transferManager *service.InMemoryTransferManager
	notifier        *service.TransferNotifier
	kafkaProducer   kafka.Producer
	authService     service.Auth
	stopWatch       context.CancelFunc
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.App.LogFile, logger.ParseLevel(cfg.App.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	log := loggerWithFile.Logger
	log.Info("инициализация приложения")
	log.Info("конфигурация загружена",
		slog.String("port", cfg.HTTP.Port),
		slog.Int("buffer_size", cfg.Pipeline.BufferSize),
		slog.Int("max_threads", cfg.Pipeline.MaxThreads))

	var kafkaProducer kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		producer, err := kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
		}
		kafkaProducer = kafka.NewBreakerProducer(producer, kafka.BreakerConfig{
			ConsecutiveFailures: cfg.Kafka.BreakerFailures,
			OpenTimeout:         cfg.Kafka.BreakerTimeout,
		}, log)
	} else {
		log.Info("kafka отключен в конфигурации")
		kafkaProducer = kafka.NewNoOpProducer(log)
	}
	notifier := service.NewTransferNotifier(kafkaProducer, cfg.Kafka.QueueSize, cfg.Kafka.Workers, cfg.Kafka.SendTimeout, log)

	accounts := memory.NewAccountLedger()
	transfers := memory.NewTransferLedger()
	validator := service.NewDebitTransferValidator(accounts)

	transferManager, err := service.NewTransferManager(transfers, accounts, validator, notifier, service.ManagerConfig{
		BufferSize:   cfg.Pipeline.BufferSize,
		MaxThreads:   cfg.Pipeline.MaxThreads,
		LaneCapacity: cfg.Pipeline.LaneCapacity,
		PutTimeout:   cfg.Pipeline.PutTimeout,
		PollInterval: cfg.Pipeline.PollInterval,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конвейера переводов: %w", err)
	}
	log.Info("конвейер переводов инициализирован")

	srv := server.NewServer(server.Options{
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, log)
	log.Info("сервер инициализирован", slog.String("port", cfg.HTTP.Port))
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middlew.AccessLog)
	srv.Router.Use(middleware.Recoverer)
	srv.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))
	srv.RegisterSwagger()
	srv.RegisterHealth(transferManager.Running)

	var healthServer *grpc_server.HealthServer
	if cfg.GRPC.Enabled {
		listener, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
		if err != nil {
			return nil, fmt.Errorf("ошибка запуска gRPC listener: %w", err)
		}
		healthServer = grpc_server.NewHealthServer(listener, log)
		log.Info("gRPC health server инициализирован", slog.String("port", cfg.GRPC.Port))
	}

	var authService service.Auth
	if cfg.AuthEnabled() {
		authService = service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Expiration, log)
		log.Info("авторизация по JWT включена")
	} else {
		log.Warn("JWT_SECRET не задан, авторизация отключена")
	}

	return &App{
		log:             log,
		logFile:         loggerWithFile.LogFile,
		cfg:             cfg,
		server:          srv,
		healthServer:    healthServer,
		accounts:        accounts,
		transfers:       transfers,
		validator:       validator,
		transferManager: transferManager,
		notifier:        notifier,
		kafkaProducer:   kafkaProducer,
		authService:     authService,
	}, nil
}

// protected wraps routes with RequireAuth when auth is configured.
func (a *App) protected(r chi.Router) {
	if a.authService != nil {
		r.Use(middlew.RequireAuth(a.authService))
	}
}

func (a *App) BuildAccountLayer() {
	accountService := service.NewAccountService(a.accounts, a.log)
	accountHandler := handlers.NewAccountHandler(accountService)

	a.server.Router.Get("/api/v1/accounts/{accountID}", accountHandler.GetAccount)

	a.server.Router.Group(func(r chi.Router) {
		a.protected(r)
		r.Post("/api/v1/accounts", accountHandler.CreateAccount)
	})

	a.log.Info("слой 'accounts' собран и маршруты зарегистрированы")
}

func (a *App) BuildTransferLayer() error {
	if a.transferManager == nil {
		err := errors.New("transferManager not initialized")
		a.log.Error(err.Error())
		return err
	}

	transferService := service.NewTransferService(a.transferManager, a.transfers, a.validator, a.log)
	transferHandler := handlers.NewTransferHandler(transferService)

	a.server.Router.Get("/api/v1/transfers", transferHandler.ListTransfers)
	a.server.Router.Get("/api/v1/transfers/{transferID}", transferHandler.GetTransfer)

	a.server.Router.Group(func(r chi.Router) {
		a.protected(r)
		r.Post("/api/v1/transfers", transferHandler.CreateTransfer)
	})

	a.log.Info("слой 'transfers' собран и маршруты зарегистрированы")
	return nil
}

func (a *App) Run() error {
	if err := a.transferManager.Start(); err != nil {
		return fmt.Errorf("ошибка запуска конвейера переводов: %w", err)
	}
	a.log.Info("конвейер переводов запущен")

	serverErr := make(chan error, 2)

	if a.healthServer != nil {
		watchCtx, stopWatch := context.WithCancel(context.Background())
		a.stopWatch = stopWatch
		go a.healthServer.Watch(watchCtx, a.transferManager.Running, a.cfg.GRPC.HealthInterval)
		go func() {
			if err := a.healthServer.Run(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				serverErr <- fmt.Errorf("ошибка запуска gRPC сервера: %w", err)
			}
		}()
	}

	a.log.Info("сервер запускается")
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-serverErr:
		a.log.Error("сервер остановлен с ошибкой", slog.String("error", runErr.Error()))
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	a.log.Info("приложение останавливается")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}

	if a.healthServer != nil {
		a.log.Info("остановка gRPC health server")
		if a.stopWatch != nil {
			a.stopWatch()
		}
		a.healthServer.SetServing(false)
		a.healthServer.Shutdown()
	}

	a.log.Info("остановка конвейера переводов")
	stopCtx, stopCancel := context.WithTimeout(ctx, a.cfg.Pipeline.StopTimeout)
	if err := a.transferManager.Stop(stopCtx); err != nil {
		a.log.Error("ошибка при остановке конвейера переводов", slog.String("error", err.Error()))
	}
	stopCancel()

	if err := a.notifier.Shutdown(ctx); err != nil {
		a.log.Error("ошибка при остановке notifier", slog.String("error", err.Error()))
	}

	if a.kafkaProducer != nil {
		a.log.Info("закрытие kafka producer")
		if err := a.kafkaProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}

	a.log.Info("приложение остановлено")

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ошибка при закрытии файла логов: %v\n", err)
		}
	}
}
