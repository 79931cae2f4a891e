package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/alerting"
	"github.com/bher20/golddigest/internal/api"
	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/digest"
	"github.com/bher20/golddigest/internal/distribute"
	"github.com/bher20/golddigest/internal/logger"
	"github.com/bher20/golddigest/internal/market"
	"github.com/bher20/golddigest/internal/notification"
	"github.com/bher20/golddigest/internal/rates"
	"github.com/bher20/golddigest/internal/storage"
	"github.com/bher20/golddigest/internal/subscription"
)

// app holds the wired services shared by every command.
type app struct {
	store         storage.Storage
	digest        *digest.Service
	rates         *rates.Service
	distributor   *distribute.Distributor
	subscriptions *subscription.Service
	log           zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	store, err := storage.Open(ctx, cfg.Storage, logger.Component(log, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	gen, err := digest.NewGenerator(cfg.AI)
	if err != nil {
		store.Close()
		return nil, err
	}
	if gen == nil {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("no AI credential set, digest will use static content")
	}

	sender, err := notification.NewSender(cfg.Email)
	if err != nil {
		if !errors.Is(err, notification.ErrNotConfigured) {
			store.Close()
			return nil, err
		}
		log.Warn().Str("provider", cfg.Email.Provider).Msg("no email credential set, distribution disabled")
		sender = nil
	}

	fetcher := market.NewFetcher(cfg.Market, logger.Component(log, "market"))
	alerter := alerting.NewAlerter(cfg.Alert, logger.Component(log, "alerting"))

	return &app{
		store:         store,
		digest:        digest.NewService(fetcher, digest.NewComposer(gen), version, logger.Component(log, "digest")),
		rates:         rates.NewService(cfg.Rates),
		distributor:   distribute.New(cfg.Email, cfg.SiteURL, store, sender, alerter, logger.Component(log, "distribute")),
		subscriptions: subscription.NewService(store, cfg.IsProduction(), logger.Component(log, "subscription")),
		log:           log,
	}, nil
}

func (a *app) deps() api.Deps {
	return api.Deps{
		Digest:        a.digest,
		Rates:         a.rates,
		Distributor:   a.distributor,
		Subscriptions: a.subscriptions,
		Store:         a.store,
		Log:           logger.Component(a.log, "http"),
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
