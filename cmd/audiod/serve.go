package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"callaudio/internal/audit"
	"callaudio/internal/auth"
	"callaudio/internal/config"
	"callaudio/internal/engine"
	"callaudio/internal/hardware"
	"callaudio/internal/httpapi"
	"callaudio/internal/mode"
	"callaudio/internal/notify"
	"callaudio/internal/rbac"
	"callaudio/internal/route"
	"callaudio/pkg/logger"
	"callaudio/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinator with its HTTP and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, closer := logger.NewWithFile(cfg.App.Env, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer closer.Close()
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth, rbac.Roles()...)
	if err != nil {
		log.Error("auth init failed", "err", err)
		return err
	}

	repo, err := openJournalRepo(rootCtx, cfg.Journal, log)
	if err != nil {
		log.Error("journal init failed", "err", err)
		return err
	}
	defer repo.close()

	hub := notify.NewHub(log)
	publishers := []notify.Publisher{hub}
	if cfg.Redis.Addr != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.Notifier{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			return err
		}
		defer rdb.Close()
		pub, err := notify.NewRedisPublisher(rdb, cfg.Redis.Channel)
		if err != nil {
			return err
		}
		publishers = append(publishers, pub)
		log.Info("redis notifications enabled", "channel", cfg.Redis.Channel)
	}
	dispatcher := notify.NewDispatcher(log, 2*time.Second, publishers...)
	journal := audit.NewJournal(audit.NewService(repo), log)

	driver := hardware.NewLogDriver(log)
	headset := hardware.NewSimulatedHeadset(log, cfg.Device.BluetoothConfirmDelay)
	headset.SetWiredPluggedIn(cfg.Device.WiredHeadsetPresent)
	headset.SetWirelessAvailable(cfg.Device.BluetoothAvailable)

	eng, err := engine.New(engine.Options{
		Driver:         driver,
		Tones:          driver,
		Wireless:       headset,
		Wired:          headset,
		HasEarpiece:    cfg.Device.HasEarpiece,
		ConnectTimeout: cfg.Device.ConnectTimeout,
		Observers:      []mode.Observer{journal, dispatcher},
		Listeners:      []route.Listener{journal, dispatcher},
		Logger:         log,
	})
	if err != nil {
		log.Error("engine init failed", "err", err)
		return err
	}
	headset.OnAudioConnected(func(token uint64) {
		eng.Route.Send(route.Message{Kind: route.BluetoothAudioConnected, Token: token})
	})
	headset.OnAudioDisconnected(func(token uint64) {
		eng.Route.Send(route.Message{Kind: route.BluetoothAudioDisconnected, Token: token})
	})

	// The coordinators outlive the HTTP server so the final release can run.
	loopCtx, stopLoops := context.WithCancel(context.Background())
	defer stopLoops()
	var loops errgroup.Group
	loops.Go(func() error { return eng.Run(loopCtx) })
	loops.Go(func() error { return journal.Run(loopCtx) })
	loops.Go(func() error { return dispatcher.Run(loopCtx) })

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	httpapi.Register(r, httpapi.Handlers{
		Auth:     authManager,
		Engine:   eng,
		Presence: headset,
		Journal:  repo,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("audiod listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := eng.Release(shutdownCtx); err != nil {
		log.Error("audio release failed", "err", err)
	}
	stopLoops()
	if err := loops.Wait(); err != nil {
		log.Error("coordinator loop failed", "err", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// journalRepo is the audit store plus whatever must be closed with it.
type journalRepo struct {
	audit.Repository
	audit.Reader
	close func()
}

// openJournalRepo uses Postgres when a DSN is configured, memory otherwise.
func openJournalRepo(ctx context.Context, cfg config.JournalConfig, log *slog.Logger) (*journalRepo, error) {
	if cfg.DSN == "" {
		mem := audit.NewMemoryRepo()
		log.Info("journal uses in-memory storage")
		return &journalRepo{Repository: mem, Reader: mem, close: func() {}}, nil
	}
	db, err := utils.OpenPostgres(ctx, utils.JournalDB{DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	pg, err := audit.NewPostgresRepo(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("journal uses postgres")
	return &journalRepo{Repository: pg, Reader: pg, close: func() { _ = db.Close() }}, nil
}
