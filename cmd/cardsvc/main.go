package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	config "github.com/avvvet/card-services/configs"
	"github.com/avvvet/card-services/internal/cardsvc/barcode"
	"github.com/avvvet/card-services/internal/cardsvc/bot"
	"github.com/avvvet/card-services/internal/cardsvc/broker"
	"github.com/avvvet/card-services/internal/cardsvc/composer"
	cardconfig "github.com/avvvet/card-services/internal/cardsvc/config"
	"github.com/avvvet/card-services/internal/cardsvc/db"
	handlers "github.com/avvvet/card-services/internal/cardsvc/handlers"
	"github.com/avvvet/card-services/internal/cardsvc/service"
	"github.com/avvvet/card-services/internal/cardsvc/store"
	mongodb "github.com/avvvet/card-services/internal/db"
	nats "github.com/avvvet/card-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := cardconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// subscriber store
	subscriberStore, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = subscriberStore.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatalf("Failed to migrate %s store: %v", cfg.StoreDriver, err)
	}
	log.Infof("%s subscriber store ready", cfg.StoreDriver)

	// Connect to NATS, events are optional
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	events := broker.NewBroker(nil, instanceId)
	if n != nil {
		defer n.Conn.Close()
		events = broker.NewBroker(n.Conn, instanceId)
		log.Printf("NATS connection established successfully %s", n.Url)
	}

	cardComposer, err := composer.NewFromFile(cfg.TemplatePath, cfg.FontPath)
	if err != nil {
		log.Fatalf("Failed to load card font: %v", err)
	}
	if _, err := os.Stat(cfg.TemplatePath); err != nil {
		log.Warnf("card template %s is not readable, /get_card will fail: %v", cfg.TemplatePath, err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		log.Fatalf("Failed to create work dir %s: %v", cfg.WorkDir, err)
	}

	subscriberService := service.NewSubscriberService(subscriberStore, events, cfg.AdminIDs)
	issuanceService := service.NewIssuanceService(subscriberService, barcode.NewEncoder(cfg.WorkDir), cardComposer, events,
		service.IssuanceOptions{
			WorkDir:         cfg.WorkDir,
			IdentifierWidth: cfg.IdentifierWidth,
			Timeout:         cfg.IssuanceTimeout,
		})

	// telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create telegram bot: %v", err)
	}
	log.Infof("authorized on telegram account %s", api.Self.UserName)

	ctx, stopBot := context.WithCancel(context.Background())
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	cardBot := bot.NewBot(api, issuanceService, subscriberService)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		cardBot.Run(ctx, updates)
	}()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(subscriberService)
	h.InitAuth(cfg.JWTSecretKey)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	api.StopReceivingUpdates()
	stopBot()
	<-botDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// openStore connects the configured backend and returns its closer.
func openStore(cfg cardconfig.Config) (store.SubscriberStore, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.Connect(cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("pg connection established successfully")
		return store.NewPgSubscriberStore(pool), pool.Close, nil
	case "mongo":
		mdb, err := mongodb.ConnectToDB(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("mongo connection established successfully")
		return store.NewMongoSubscriberStore(mdb), func() { mongodb.Disconnect(mdb) }, nil
	default:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteSubscriberStore(sqlDB), func() { sqlDB.Close() }, nil
	}
}
