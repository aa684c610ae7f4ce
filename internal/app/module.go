package app

import (
	"context"

	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/config"
	"github.com/talenthub-app/hubtalk/internal/engine"
	"github.com/talenthub-app/hubtalk/internal/lock"
	"github.com/talenthub-app/hubtalk/internal/logging"
	"github.com/talenthub-app/hubtalk/internal/portal"
	"github.com/talenthub-app/hubtalk/internal/profile"
	"github.com/talenthub-app/hubtalk/internal/push"
	"github.com/talenthub-app/hubtalk/internal/status"
	"github.com/talenthub-app/hubtalk/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
}

// Module returns the fx module for the client, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("hubtalk",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideProfile,
			providePortalClient,
			provideAggregator,
			provideListener,
			provideTUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	// The TUI owns the terminal, so no console tee.
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, false)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideProfile(p Params, logger *zap.Logger) (*config.Profile, error) {
	cfg, err := config.LoadProfile(profile.ProfileConfigPath(p.ProfileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Info("profile loaded",
		zap.String("participant", cfg.ParticipantID),
		zap.String("role", cfg.ParticipantRole))
	return cfg, nil
}

func providePortalClient(cfg *config.Profile, logger *zap.Logger) *portal.Client {
	return portal.NewClient(cfg.APIBaseURL, cfg.APIToken, logger)
}

func provideAggregator(cfg *config.Profile, client *portal.Client, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *engine.Aggregator {
	return engine.New(cfg.ParticipantID, client, client, b, machine, logger)
}

func provideListener(cfg *config.Profile, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *push.Listener {
	return push.NewListener(cfg.PushURL, cfg.APIToken, cfg.ParticipantID, b, machine, logger)
}

func provideTUI(p Params, agg *engine.Aggregator, b *bus.Bus) *tui.App {
	return tui.NewApp(agg, b, p.ProfileName)
}

func registerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, ui *tui.App, agg *engine.Aggregator, listener *push.Listener, cfg *config.Profile, client *portal.Client, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Aggregator re-runs the pipeline on push.message bus events.
			agg.Start(context.Background())

			// The push channel is optional; polling is the 'r' key.
			if cfg.PushURL != "" {
				listener.Start(context.Background())
			}

			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = sd.Shutdown()
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			listener.Stop()
			agg.Stop()
			ui.Stop()
			client.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
