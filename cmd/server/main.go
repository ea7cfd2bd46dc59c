package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cognerax/sitekit/modules/forms"
	"github.com/cognerax/sitekit/modules/pages"
	"github.com/cognerax/sitekit/pkg/audience"
	"github.com/cognerax/sitekit/pkg/config"
	"github.com/cognerax/sitekit/pkg/cookie"
	"github.com/cognerax/sitekit/pkg/email"
	"github.com/cognerax/sitekit/pkg/httpserver"
	"github.com/cognerax/sitekit/pkg/logger"
	"github.com/cognerax/sitekit/pkg/redis"
	"github.com/cognerax/sitekit/pkg/requestid"
	"github.com/cognerax/sitekit/pkg/throttle"
	"github.com/cognerax/sitekit/pkg/turnstile"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	DevMailDir  string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`
}

func main() {
	var (
		appCfg       appConfig
		serverCfg    httpserver.Config
		throttleCfg  throttle.Config
		turnstileCfg turnstile.Config
		emailCfg     email.Config
		audienceCfg  audience.Config
		formsCfg     forms.Config
		cookieCfg    cookie.Config
		redisCfg     redis.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&serverCfg)
	config.MustLoad(&throttleCfg)
	config.MustLoad(&turnstileCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&audienceCfg)
	config.MustLoad(&formsCfg)
	config.MustLoad(&cookieCfg)
	config.MustLoad(&redisCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Environment, "sitekit"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	storage, healthcheck, err := newThrottleStorage(context.Background(), redisCfg, log)
	if err != nil {
		fatal(log, "throttle storage init failed", err)
	}
	thr, err := throttle.New(storage, throttleCfg, throttle.WithLogger(log))
	if err != nil {
		fatal(log, "throttle init failed", err)
	}

	verifier, err := turnstile.New(turnstileCfg)
	if err != nil {
		fatal(log, "challenge verifier init failed", err)
	}

	sender, overrides, err := newSenders(appCfg, emailCfg, formsCfg)
	if err != nil {
		fatal(log, "email sender init failed", err)
	}

	audienceClient := newAudience(audienceCfg, log)

	formsSvc, err := forms.NewService(forms.Deps{
		Sender:          sender,
		SenderOverrides: overrides,
		Throttle:        thr,
		Verifier:        verifier,
		Audience:        audienceClient,
		NotifyEmail:     formsCfg.NotifyEmail,
		Logger:          log,
	})
	if err != nil {
		fatal(log, "forms service init failed", err)
	}

	cookies := cookie.NewFromConfig(cookieCfg)
	pagesSvc := pages.NewService(cookies, log)

	api := chi.NewRouter()
	api.Get("/consent", pagesSvc.HandleGetConsent)
	api.Post("/consent", pagesSvc.HandleSetConsent)
	api.Mount("/", forms.Router(formsSvc, formsCfg.AllowedOrigins))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Get("/healthz", healthHandler(healthcheck))
	r.Mount("/api", api)
	r.Mount("/", pagesSvc.Router())

	srv := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))
	if err := srv.Run(context.Background(), r); err != nil {
		fatal(log, "server exited with error", err)
	}
}

// newThrottleStorage picks Redis when configured so counters are shared
// across replicas, and in-process memory otherwise. The returned
// healthcheck covers whichever backend is active.
func newThrottleStorage(ctx context.Context, cfg redis.Config, log *slog.Logger) (throttle.Storage, func(context.Context) error, error) {
	if !cfg.Enabled() {
		log.Info("throttle using in-memory storage")
		return throttle.NewMemoryStorage(), nil, nil
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	storage, err := throttle.NewRedisStorage(client)
	if err != nil {
		return nil, nil, err
	}
	log.Info("throttle using redis storage")
	return storage, redis.Healthcheck(client), nil
}

// healthHandler reports readiness, including the storage backend when
// one is attached.
func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// newSenders builds the default relay and the per-form token overrides.
// Without a Postmark token the development sender writes emails to disk.
func newSenders(appCfg appConfig, emailCfg email.Config, formsCfg forms.Config) (email.EmailSender, map[forms.FormType]email.EmailSender, error) {
	if emailCfg.PostmarkServerToken == "" {
		return email.NewDevSender(appCfg.DevMailDir), nil, nil
	}

	sender, err := email.NewPostmarkClient(emailCfg)
	if err != nil {
		return nil, nil, err
	}

	overrides := make(map[forms.FormType]email.EmailSender)
	for form, token := range formsCfg.SenderTokens() {
		cfg := emailCfg
		cfg.PostmarkServerToken = token
		client, err := email.NewPostmarkClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		overrides[form] = client
	}
	return sender, overrides, nil
}

// newAudience returns nil when newsletter signups are not configured;
// the forms service reports the endpoint as unavailable in that case.
func newAudience(cfg audience.Config, log *slog.Logger) audience.Client {
	client, err := audience.New(cfg)
	if err != nil {
		log.Warn("newsletter audience disabled", logger.Error(err))
		return nil
	}
	return client
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, logger.Error(err))
	os.Exit(1)
}
