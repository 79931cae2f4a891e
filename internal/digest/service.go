package digest

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/golddigest/internal/market"
	"github.com/bher20/golddigest/internal/metrics"
)

// MarketSource is the subset of market.Fetcher the digest service needs.
type MarketSource interface {
	FetchSnapshot(ctx context.Context) market.Snapshot
	FetchNews(ctx context.Context) []market.Headline
}

// Service builds the daily digest, falling back to static content when the
// live path fails.
type Service struct {
	market   MarketSource
	composer *Composer
	version  string
	log      zerolog.Logger
}

func NewService(src MarketSource, composer *Composer, version string, log zerolog.Logger) *Service {
	return &Service{
		market:   src,
		composer: composer,
		version:  version,
		log:      log,
	}
}

// Build always returns a digest. It makes one live attempt and never
// surfaces its error.
func (s *Service) Build(ctx context.Context) Digest {
	var (
		snap market.Snapshot
		news []market.Headline
	)
	var g errgroup.Group
	g.Go(func() error {
		snap = s.market.FetchSnapshot(ctx)
		return nil
	})
	g.Go(func() error {
		news = s.market.FetchNews(ctx)
		return nil
	})
	_ = g.Wait()

	info := &MarketInfo{
		GoldUSD:    snap.GoldUSD,
		USDINR:     snap.USDINR,
		GoldSource: snap.GoldSource,
		FXSource:   snap.FXSource,
	}

	brief, err := s.composer.Compose(ctx, market.BuildContext(snap, news))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			s.log.Debug().Msg("no text generator configured, serving fallback digest")
		} else {
			s.log.Warn().Err(err).Msg("live digest failed, serving fallback digest")
		}
		d := Fallback(s.composer.Today())
		d.Version = s.version
		d.Market = info
		metrics.DigestBuildsTotal.WithLabelValues(string(d.Source)).Inc()
		return d
	}

	metrics.DigestBuildsTotal.WithLabelValues(string(SourceAI)).Inc()
	return Digest{
		Date:    brief.Date,
		Text:    brief.Text,
		HTML:    brief.HTML,
		Source:  SourceAI,
		Version: s.version,
		Market:  info,
	}
}
