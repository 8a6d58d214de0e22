package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Travis-Britz/irc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/macports/portbot/internal/config"
	"github.com/macports/portbot/internal/herald"
	"github.com/macports/portbot/internal/ircbot"
	"github.com/macports/portbot/internal/lookup"
	"github.com/macports/portbot/internal/registry"
	"github.com/macports/portbot/internal/store"
	"github.com/macports/portbot/internal/worker"
)

const (
	minReconnect = 2 * time.Second
	maxReconnect = 2 * time.Minute
	// A session that lasted this long resets the reconnect backoff.
	stableSession = time.Minute
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *prometheus.Registry
	httpSrv *http.Server
	kv      store.KV
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if len(cfg.IRCChannels) == 0 {
		return nil, errors.New("no IRC channels configured")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, metrics: reg, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting portbot",
		zap.String("irc", a.cfg.IRCAddr),
		zap.String("nick", a.cfg.IRCNick),
		zap.Strings("channels", a.cfg.IRCChannels),
		zap.String("store", a.cfg.StoreDriver),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, store.Config{
		Driver:        a.cfg.StoreDriver,
		Path:          a.cfg.DBPath,
		RedisAddr:     a.cfg.RedisAddr,
		RedisPassword: a.cfg.RedisPassword,
		RedisDB:       a.cfg.RedisDB,
		PostgresDSN:   a.cfg.PostgresDSN,
	})
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.kv = kv
	// Cleared when tasks outlive the pool shutdown; they still hold the store.
	closeStore := true
	defer func() {
		if !closeStore {
			a.log.Warn("leaving store open for unfinished tasks")
			return
		}
		if err := a.kv.Close(); err != nil {
			a.log.Warn("store close error", zap.Error(err))
		}
	}()
	a.log.Info("store ready")

	profiles := registry.New(kv)
	runner := lookup.ExecRunner{Timeout: a.cfg.LookupTimeout}
	ports := lookup.NewPorts(runner, a.cfg.PortBin, a.log.Named("ports"))
	clock := lookup.NewClock(runner, a.cfg.DateBin, a.log.Named("clock"))

	pool := worker.New(worker.Config{
		Workers:    a.cfg.Workers,
		QueueSize:  a.cfg.QueueSize,
		Registerer: a.metrics,
	}, a.log.Named("worker"))
	// Tasks outlive the signal context so Stop can drain them.
	pool.Start(context.Background())

	client := &irc.Client{
		Addr:     a.cfg.IRCAddr,
		Nickname: a.cfg.IRCNick,
		User:     a.cfg.IRCUser,
		Realname: a.cfg.IRCRealname,
		Pass:     a.cfg.IRCPass,
		ErrorLog: zap.NewStdLog(a.log.Named("irc")),
	}
	sender := ircbot.NewSender(ctx, client, a.cfg.SendRate, a.cfg.SendBurst, a.log.Named("sender"))

	h := herald.New(profiles, ports, clock, sender, a.log.Named("herald"), herald.Options{
		MinInterval: a.cfg.HeraldMinInterval,
		Metrics:     herald.NewMetrics(a.metrics),
	})
	bot := ircbot.New(ircbot.Config{
		Channels: a.cfg.IRCChannels,
		Prefix:   a.cfg.Prefix,
		TracURL:  a.cfg.TracURL,
	}, h, profiles, ports, pool, sender, client.Nick, a.log.Named("bot"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.runIRC(gctx, client, bot.Handler())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		if err := pool.Stop(shCtx); err != nil {
			a.log.Warn("worker pool stop", zap.Error(err))
			closeStore = false
		}
		return nil
	})
	return g.Wait()
}

// runIRC keeps the client connected until ctx is done, backing off
// exponentially between failed sessions.
func (a *App) runIRC(ctx context.Context, client *irc.Client, h irc.Handler) {
	backoff := minReconnect
	for {
		started := time.Now()
		err := client.ConnectAndRun(ctx, h)
		if ctx.Err() != nil {
			a.log.Info("irc disconnected")
			return
		}
		if time.Since(started) > stableSession {
			backoff = minReconnect
		}
		a.log.Warn("irc connection lost", zap.Error(err), zap.Duration("retry_in", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff *= 2
		if backoff > maxReconnect {
			backoff = maxReconnect
		}
	}
}
