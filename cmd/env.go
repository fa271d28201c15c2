package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crate-scout/vinyl-cli/internal/appraise"
	"github.com/crate-scout/vinyl-cli/internal/market"
	"github.com/crate-scout/vinyl-cli/internal/store"
	"github.com/crate-scout/vinyl-cli/internal/vision"
	"github.com/crate-scout/vinyl-cli/pkg/discogs"
	"github.com/crate-scout/vinyl-cli/pkg/ebay"
	"github.com/crate-scout/vinyl-cli/pkg/musicbrainz"
)

// initStore opens the configured store backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAppraiser wires the full pipeline: store, catalog and market clients,
// and the optional vision analyzer.
func initAppraiser(ctx context.Context) (*appraise.Appraiser, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Discogs.Token == "" {
		st.Close() //nolint:errcheck
		return nil, nil, eris.New("discogs token is required (VINYL_DISCOGS_TOKEN)")
	}
	discogsClient := discogs.NewClient(cfg.Discogs.Token, discogs.WithBaseURL(cfg.Discogs.BaseURL))
	mbClient := musicbrainz.NewClient(musicbrainz.WithBaseURL(cfg.MusicBrainz.BaseURL))

	var ebayClient ebay.Client
	if cfg.Ebay.Token != "" {
		ebayClient = ebay.NewClient(cfg.Ebay.Token, ebay.WithBaseURL(cfg.Ebay.BaseURL))
	}

	var analyzer vision.Analyzer
	if cfg.Anthropic.Key != "" {
		analyzer = vision.NewAnalyzer(cfg.Anthropic.Key, cfg.Anthropic.Model)
	}

	sources := market.DefaultConfig()
	if cfg.Market.SourcesFile != "" {
		sources, err = market.LoadConfig(cfg.Market.SourcesFile)
		if err != nil {
			zap.L().Warn("market sources file unreadable, using defaults", zap.Error(err))
		}
	}

	a := appraise.New(st, discogsClient, mbClient, ebayClient, analyzer, appraise.Settings{
		Sources:       sources,
		MaxCandidates: cfg.Appraise.MaxCandidates,
		Parallelism:   cfg.Appraise.Parallelism,
		CacheTTL:      time.Duration(cfg.Market.CacheTTLHours) * time.Hour,
	})
	return a, st, nil
}
