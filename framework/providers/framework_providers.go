package providers

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ksfraser/go-container/framework/config"
	"github.com/ksfraser/go-container/framework/container"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// binds it into the container as "config".
//
// Bound abstracts:
//   - "config"        → *config.Config
//   - "configuration" → alias of "config"
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	envFiles := p.EnvFiles
	app.Singleton("config", func(c *container.Container) (any, error) {
		return config.Load(envFiles...), nil
	})
	app.Alias("config", "configuration")
	app.MapType((*config.Config)(nil), "config")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the structured logger.
//
// Bound abstracts:
//   - "logger" → *zap.Logger
//
// Production environments get zap's JSON production config; everything else
// gets the human-readable development config. LOG_LEVEL overrides the
// config's default level either way.
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LogServiceProvider struct {
	container.BaseProvider
}

func (p *LogServiceProvider) Register(app *container.Container) {
	app.Singleton("logger", func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		return newLogger(cfg)
	})
	app.MapType((*zap.Logger)(nil), "logger")
}

// Boot emits the bootstrap line so a misconfigured logger fails loudly at
// startup, not on first use.
func (p *LogServiceProvider) Boot(app *container.Container) {
	logger := container.MustResolve[*zap.Logger](app, "logger")
	cfg := container.MustResolve[*config.Config](app, "config")
	logger.Info("application booted",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.App.Env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}
