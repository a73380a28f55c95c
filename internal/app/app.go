// Package app assembles the nirbhaya components from a loaded config
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/alertlog"
	"github.com/lcrostarosa/nirbhaya/internal/config"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/feedback"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/news"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/share"
	"github.com/lcrostarosa/nirbhaya/internal/sos"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

// Options are the front-end specific pieces. All fields are optional.
type Options struct {
	// Notifier receives every toast alongside the in-memory center
	Notifier toast.Notifier
	Alerter  feedback.Alerter
	// Opener overrides the link opener chosen from config
	Opener  share.Opener
	OnState func(sos.State)
	Logger  *zap.Logger
}

// App holds the wired components
type App struct {
	Config       *config.Config
	Session      *session.Store
	Contacts     *contacts.Store
	Location     *location.Service
	Dispatcher   *share.Dispatcher
	Capabilities share.Capabilities
	Workflow     *sos.Workflow
	Alerts       alertlog.Recorder
	Articles     *news.Cache
	Toasts       *toast.Center

	// Links is set when deep links are recorded rather than opened
	Links *share.LogOpener

	closers []func() error
}

// New opens storage, restores the session and contacts, and wires the
// SOS workflow
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := logging.OrNop(opts.Logger)
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	kv, closeKV, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, closeKV)

	a.Contacts = contacts.NewStore(kv, contacts.WithLogger(logger))
	a.Session = session.NewStore(kv, logger, a.Contacts)
	if err := a.Session.Load(ctx); err != nil {
		return nil, err
	}
	if err := a.Contacts.Load(ctx); err != nil {
		return nil, err
	}

	a.Location = location.NewService(
		newLocator(cfg.Location, logger),
		location.NewGeocoder(cfg.Location.GeocodeURL, logger),
		cfg.Location.Timeout(),
		logger,
	)

	opener := opts.Opener
	if opener == nil {
		if cfg.SOS.OpenLinks {
			opener = share.NewSystemOpener()
		} else {
			a.Links = share.NewLogOpener(logger)
			opener = a.Links
		}
	}

	var relays []share.Channel
	if cfg.Relay.Enabled() {
		client, disconnect, err := share.ConnectRelay(cfg.Relay, logger)
		if err != nil {
			// SOS still goes out over the deep-link channels
			logger.Warn("Relay unavailable", zap.Error(err))
		} else {
			relays = append(relays, share.NewMQTTChannel(client, cfg.Relay.TopicPrefix))
			a.closers = append(a.closers, func() error { disconnect(); return nil })
		}
	}

	a.Capabilities = share.CapabilitiesFor(share.ResolvePlatform(cfg.SOS.Platform))
	a.Dispatcher = share.NewDispatcher(a.Capabilities, opener, logger, relays...)

	alerts, closeAlerts, err := alertlog.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	a.Alerts = alerts
	a.closers = append(a.closers, closeAlerts)

	a.Toasts = toast.NewCenter()
	var notifier toast.Notifier = a.Toasts
	if opts.Notifier != nil {
		notifier = toast.Multi{a.Toasts, opts.Notifier}
	}

	a.Workflow, err = sos.New(sos.Config{
		Session:         a.Session,
		Contacts:        a.Contacts,
		Locator:         a.Location,
		Sender:          a.Dispatcher,
		Alerter:         opts.Alerter,
		Notifier:        notifier,
		Recorder:        a.Alerts,
		Capabilities:    a.Capabilities,
		Countdown:       cfg.Countdown(),
		LocationTimeout: cfg.Location.Timeout(),
		OnState:         opts.OnState,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	a.Articles = news.NewCache(news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, logger))
	a.closers = append(a.closers, func() error { a.Toasts.Clear(); return nil })
	return a, nil
}

func newLocator(cfg config.LocationConfig, logger *zap.Logger) location.Locator {
	static := location.NewStaticLocator(cfg.Latitude, cfg.Longitude, cfg.Accuracy)
	if cfg.Provider != config.LocatorIP {
		return static
	}
	ip := location.NewIPLocator(cfg.IPLocateURL, logger)
	if cfg.Latitude == nil {
		return ip
	}
	// Configured coordinates back up the IP lookup
	return location.LocatorFunc(func(ctx context.Context) (location.Coordinates, error) {
		c, err := ip.Locate(ctx)
		if err == nil {
			return c, nil
		}
		return static.Locate(ctx)
	})
}

// Close releases everything New opened, in reverse order
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
