package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idbridge/internal/broker"
	"github.com/dropDatabas3/idbridge/internal/cache"
	"github.com/dropDatabas3/idbridge/internal/config"
	"github.com/dropDatabas3/idbridge/internal/email"
	"github.com/dropDatabas3/idbridge/internal/federation"
	ctrl "github.com/dropDatabas3/idbridge/internal/http/controllers/resolve"
	rsvc "github.com/dropDatabas3/idbridge/internal/http/services/resolve"
	"github.com/dropDatabas3/idbridge/internal/http/router"
	"github.com/dropDatabas3/idbridge/internal/oauth/github"
	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"github.com/dropDatabas3/idbridge/internal/rate"
	"github.com/dropDatabas3/idbridge/internal/security/secretbox"
	"github.com/dropDatabas3/idbridge/internal/store/memory"
	"github.com/dropDatabas3/idbridge/internal/store/pg"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP de resolución de identidades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "ruta al archivo de configuración YAML (opcional)")
	return cmd
}

func runServe(cfgPath string) error {
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("cargando config %s: %w", cfgPath, err)
		}
	} else {
		cfg = config.Default()
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "idbridge",
	})
	defer func() { _ = logger.Sync() }()

	log := logger.With(logger.Component("serve"))

	// ───────── Cache compartido (lookups de provider) ─────────
	memTTL, err := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	if err != nil {
		memTTL = 2 * time.Minute
	}
	ccfg := cache.Config{Kind: cfg.Cache.Kind, DefaultTTL: memTTL}
	ccfg.Redis.Addr = cfg.Cache.Redis.Addr
	ccfg.Redis.DB = cfg.Cache.Redis.DB
	ccfg.Redis.Prefix = cfg.Cache.Redis.Prefix
	appCache, err := cache.New(ccfg)
	if err != nil {
		return fmt.Errorf("inicializando cache: %w", err)
	}
	log.Info("cache listo", logger.String("kind", cfg.Cache.Kind))

	// ───────── Core de federación ─────────
	ghClient := github.New(github.Options{
		Endpoint: cfg.GitHub.EmailEndpoint,
		Timeout:  cfg.GitHub.Timeout,
		Cache:    appCache,
		CacheTTL: cfg.GitHub.CacheTTL,
	})
	attrs := federation.NewAttributeResolver(federation.DefaultAliasTable(), ghClient)
	deriver := federation.NewKeyDeriver(attrs)
	validator := federation.NewPrincipalValidator(cfg.Provisioning.Marker)

	// ───────── Storage ─────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var accounts federation.AccountResolver
	var provisioner federation.UserProvisioner
	var closeStore func()

	switch cfg.Storage.Driver {
	case "postgres":
		lifetime, _ := time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		pools := pg.NewPoolManager(pg.Tuning{
			MaxConns:        cfg.Storage.Postgres.MaxOpenConns,
			MinConns:        cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: lifetime,
		})
		st, err := pools.Get(ctx, cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("conectando a postgres: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			log.Warn("migraciones fallidas, continuando", logger.Err(err))
		}
		accounts, provisioner, closeStore = st, st, pools.CloseAll
	case "memory":
		st := memory.New()
		accounts, provisioner, closeStore = st, st, func() {}
	default:
		return fmt.Errorf("storage driver desconocido: %q", cfg.Storage.Driver)
	}
	defer closeStore()
	log.Info("storage listo", logger.String("driver", cfg.Storage.Driver))

	resolver := federation.NewResolver(federation.ResolverDeps{
		Deriver:     deriver,
		Accounts:    accounts,
		Provisioner: provisioner,
		Validator:   validator,
	})

	// ───────── Broker verifier ─────────
	secret, err := brokerSecret(cfg)
	if err != nil {
		return err
	}
	verifier := broker.NewVerifier(secret, cfg.Broker.Issuer, cfg.Broker.MaxAge)

	// ───────── Notificaciones (opcional) ─────────
	var notifier email.Notifier = email.Noop{}
	if cfg.Provisioning.WelcomeEmail && cfg.SMTP.Host != "" {
		pass := cfg.SMTP.Password
		if strings.Contains(pass, "|") {
			if dec, err := secretbox.Decrypt(pass); err == nil {
				pass = dec
			} else {
				log.Warn("no se pudo descifrar SMTP password, usando valor literal", logger.Err(err))
			}
		}
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, pass)
		if cfg.SMTP.TLS != "" {
			sender.TLSMode = cfg.SMTP.TLS
		}
		sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		notifier = email.NewWelcomeNotifier(sender, "")
		log.Info("welcome emails habilitados", logger.String("smtp_host", cfg.SMTP.Host))
	}

	// ───────── Rate limit ─────────
	var limiter rate.Limiter
	if cfg.RateLimit.Max > 0 {
		if cfg.Cache.Kind == "redis" {
			limiter = rate.NewRedisLimiter(rdb.NewClient(&rdb.Options{
				Addr: cfg.Cache.Redis.Addr,
				DB:   cfg.Cache.Redis.DB,
			}), "", cfg.RateLimit.Max, cfg.RateLimit.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		}
		log.Info("rate limit activo",
			logger.Int("max", cfg.RateLimit.Max),
			logger.String("window", cfg.RateLimit.Window.String()),
		)
	}

	// ───────── HTTP ─────────
	svc := rsvc.NewService(rsvc.Deps{
		Verifier: verifier,
		Resolver: resolver,
		Notifier: notifier,
		Metrics:  rsvc.NewMetrics(nil),
	})
	handler := router.New(router.Deps{
		Resolve: ctrl.NewController(svc),
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("servidor escuchando", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("señal recibida, apagando")
	case err := <-errCh:
		return fmt.Errorf("servidor http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown con error", zap.Error(err))
	}
	return nil
}

// brokerSecret resuelve el secreto compartido con el broker. Acepta el
// formato cifrado de secretbox; en dev puede venir en claro (sin "|").
func brokerSecret(cfg *config.Config) ([]byte, error) {
	raw := cfg.Broker.Secret
	if raw == "" {
		return nil, fmt.Errorf("broker.secret vacío (config o env BROKER_SECRET)")
	}
	if strings.Contains(raw, "|") {
		dec, err := secretbox.Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("descifrando broker.secret: %w", err)
		}
		return []byte(dec), nil
	}
	if strings.ToLower(cfg.App.Env) == "prod" {
		fmt.Fprintln(os.Stderr, "WARN: broker.secret en claro fuera de dev")
	}
	return []byte(raw), nil
}
