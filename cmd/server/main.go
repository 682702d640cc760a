package main // Entry point package

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edwanmarques/portfolio/internal/config"
	"github.com/edwanmarques/portfolio/internal/database"
	"github.com/edwanmarques/portfolio/internal/handler"
	"github.com/edwanmarques/portfolio/internal/queue"
	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/repository/memstore"
	"github.com/edwanmarques/portfolio/internal/router"
	"github.com/edwanmarques/portfolio/internal/service"
)

type stores struct {
	users    repository.UserStore
	contacts repository.ContactStore
	projects repository.ProjectStore
	sessions repository.SessionStore
}

func main() {
	memory := flag.Bool("memory", false, "keep all data in process memory (development only)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var st stores
	if *memory {
		if cfg.IsProduction() {
			log.Fatal("-memory is not allowed in production")
		}
		log.Printf("using in-memory stores; data is lost on exit")
		st = stores{memstore.NewUsers(), memstore.NewContacts(), memstore.NewProjects(), memstore.NewSessions()}
	} else {
		db, err := database.Open(cfg.DB)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer func() { _ = database.Close(db) }()
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(db); err != nil {
				log.Fatalf("migrate: %v", err)
			}
		}
		st = stores{repository.NewUserRepo(db), repository.NewContactRepo(db), repository.NewProjectRepo(db), repository.NewSessionRepo(db)}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: login limiter in memory, global limiter and cache off")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier handler.ContactNotifier
	if cfg.AMQPURL != "" {
		notifier = service.NewContactPublisher(cfg.AMQPURL)
		if cfg.ContactConsumerEnabled {
			go func() {
				if err := queue.StartContactConsumer(ctx, cfg.AMQPURL, cfg.ContactLogDir); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("contact-consumer: %v", err)
				}
			}()
		}
	}

	sweeper := &service.SessionSweeper{Store: st.sessions, Interval: cfg.SessionSweepInterval}
	go sweeper.Run(ctx)

	e := router.New(router.Deps{
		Config:     cfg,
		Users:      st.users,
		Contacts:   st.contacts,
		Projects:   st.projects,
		Sessions:   st.sessions,
		Redis:      rdb,
		Notifier:   notifier,
		RateLimit:  config.LoadRateLimitConfig(),
		LoginLimit: config.LoadLoginLimitConfig(),
		Cache:      config.LoadCacheConfig(),
		AccessLog:  true,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
