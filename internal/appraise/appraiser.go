// Package appraise orchestrates the full pipeline for one record: vision
// extraction, catalog matching, market aggregation, and valuation, persisting
// each stage as it completes.
package appraise

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crate-scout/vinyl-cli/internal/market"
	"github.com/crate-scout/vinyl-cli/internal/match"
	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/store"
	"github.com/crate-scout/vinyl-cli/internal/valuation"
	"github.com/crate-scout/vinyl-cli/internal/vision"
	"github.com/crate-scout/vinyl-cli/pkg/discogs"
	"github.com/crate-scout/vinyl-cli/pkg/ebay"
	"github.com/crate-scout/vinyl-cli/pkg/musicbrainz"
)

// Settings holds the tunables of the appraiser. Zero values fall back to
// the defaults below.
type Settings struct {
	Sources       market.Config
	MaxCandidates int
	Parallelism   int
	CacheTTL      time.Duration
}

const (
	defaultMaxCandidates = 8
	defaultParallelism   = 4
	defaultCacheTTL      = 24 * time.Hour
)

// Appraiser runs the identification and valuation pipeline. The eBay client
// and vision analyzer are optional; nil disables the corresponding stage.
type Appraiser struct {
	store       store.Store
	discogs     discogs.Client
	musicbrainz musicbrainz.Client
	ebay        ebay.Client
	vision      vision.Analyzer
	settings    Settings
}

// New creates an Appraiser with all dependencies.
func New(
	st store.Store,
	dc discogs.Client,
	mb musicbrainz.Client,
	eb ebay.Client,
	vis vision.Analyzer,
	settings Settings,
) *Appraiser {
	if settings.Sources.Primary == "" {
		settings.Sources = market.DefaultConfig()
	}
	if settings.MaxCandidates <= 0 {
		settings.MaxCandidates = defaultMaxCandidates
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = defaultParallelism
	}
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = defaultCacheTTL
	}
	return &Appraiser{
		store:       st,
		discogs:     dc,
		musicbrainz: mb,
		ebay:        eb,
		vision:      vis,
		settings:    settings,
	}
}

// IdentifyPhotos runs vision extraction on the photos and identifies the
// resulting extraction.
func (a *Appraiser) IdentifyPhotos(ctx context.Context, photos []vision.Photo) (*model.Scan, error) {
	if a.vision == nil {
		return nil, eris.New("appraise: no vision analyzer configured")
	}
	res, err := a.vision.Extract(ctx, photos)
	if err != nil {
		return nil, eris.Wrap(err, "appraise: extract photos")
	}
	return a.Identify(ctx, res.Extraction)
}

// Identify records a new scan for the extraction and finds its best catalog
// match. A learned correction whose barcode or catalogue number matches the
// extraction takes precedence over the search result. The scan is persisted
// even when no match is found.
func (a *Appraiser) Identify(ctx context.Context, extraction model.OcrExtraction) (*model.Scan, error) {
	log := zap.L().With(zap.String("artist", extraction.Artist), zap.String("title", extraction.Title))

	scan, err := a.store.CreateScan(ctx, extraction)
	if err != nil {
		return nil, eris.Wrap(err, "appraise: create scan")
	}

	best, err := a.matchCandidates(ctx, &extraction)
	if err != nil {
		return nil, err
	}

	if corrected := a.applyLearnedCorrection(ctx, &extraction); corrected != nil {
		log.Info("appraise: learned correction applied",
			zap.Int64("release_id", corrected.Release.ID),
			zap.Int("score", corrected.Score),
		)
		best = corrected
	}

	if err := a.store.UpdateScanMatch(ctx, scan.ID, best); err != nil {
		return nil, eris.Wrap(err, "appraise: persist match")
	}

	scan.Match = best
	if best != nil {
		scan.Status = model.ScanStatusIdentified
		log.Info("appraise: identified",
			zap.Int64("release_id", best.Release.ID),
			zap.Int("score", best.Score),
			zap.String("confidence", string(best.Confidence)),
		)
	} else {
		scan.Status = model.ScanStatusUnmatched
		log.Info("appraise: no match")
	}
	return scan, nil
}

// Appraise aggregates market data for the scan's identified release and
// values it at the given condition. The merged market view is cached per
// release.
func (a *Appraiser) Appraise(ctx context.Context, scanID string, condition model.ItemCondition) (*model.Scan, error) {
	scan, err := a.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, eris.Wrapf(err, "appraise: load scan %s", scanID)
	}
	if scan.Match == nil {
		return nil, eris.Errorf("appraise: scan %s has no identified release", scanID)
	}

	unified, err := a.marketView(ctx, &scan.Match.Release)
	if err != nil {
		return nil, err
	}

	val := valuation.Calculate(unified, condition)

	if err := a.store.UpdateScanAppraisal(ctx, scanID, unified, val); err != nil {
		return nil, eris.Wrap(err, "appraise: persist appraisal")
	}

	scan.Market = unified
	scan.Valuation = val
	scan.Status = model.ScanStatusAppraised
	return scan, nil
}

// Correct re-resolves the scan against a user-asserted release and records
// the correction so later scans of the same pressing resolve to it directly.
func (a *Appraiser) Correct(ctx context.Context, scanID string, releaseID int64, photoHints []string) (*model.Scan, error) {
	scan, err := a.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, eris.Wrapf(err, "appraise: load scan %s", scanID)
	}

	rel, err := a.discogs.Release(ctx, releaseID)
	if err != nil {
		return nil, eris.Wrapf(err, "appraise: fetch release %d", releaseID)
	}
	if rel == nil {
		return nil, eris.Errorf("appraise: release %d not found", releaseID)
	}

	details := releaseFromDiscogs(rel)
	resolved := match.ResolveReleaseCorrection(&details, &scan.Extraction, photoHints)

	correction := model.Correction{
		ScanID:          scanID,
		Barcode:         match.NormalizeDigits(scan.Extraction.Barcode),
		CatalogueNumber: match.NormalizeText(scan.Extraction.CatalogueNumber),
		Release:         details,
	}
	if _, err := a.store.SaveCorrection(ctx, correction); err != nil {
		return nil, eris.Wrap(err, "appraise: save correction")
	}

	if err := a.store.UpdateScanMatch(ctx, scanID, resolved); err != nil {
		return nil, eris.Wrap(err, "appraise: persist corrected match")
	}

	scan.Match = resolved
	scan.Status = model.ScanStatusIdentified
	zap.L().Info("appraise: correction recorded",
		zap.String("scan_id", scanID),
		zap.Int64("release_id", releaseID),
		zap.String("confidence", string(resolved.Confidence)),
	)
	return scan, nil
}

// matchCandidates searches the catalog, fetches full details for the top
// candidates concurrently, and scores them against the extraction.
func (a *Appraiser) matchCandidates(ctx context.Context, extraction *model.OcrExtraction) (*model.ScoredMatch, error) {
	if extraction.Artist == "" || extraction.Title == "" {
		return nil, nil
	}

	results, err := a.discogs.SearchReleases(ctx, discogs.SearchRequest{
		Artist:          extraction.Artist,
		ReleaseTitle:    extraction.Title,
		CatalogueNumber: extraction.CatalogueNumber,
		PerPage:         a.settings.MaxCandidates,
	})
	if err != nil {
		return nil, eris.Wrap(err, "appraise: search releases")
	}
	if len(results) > a.settings.MaxCandidates {
		results = results[:a.settings.MaxCandidates]
	}

	candidates := make([]model.ReleaseDetails, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.settings.Parallelism)
	for i, res := range results {
		g.Go(func() error {
			rel, err := a.discogs.Release(gctx, res.ID)
			if err != nil {
				return eris.Wrapf(err, "appraise: fetch candidate %d", res.ID)
			}
			if rel != nil {
				candidates[i] = releaseFromDiscogs(rel)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop slots left empty by 404s.
	populated := candidates[:0]
	for _, c := range candidates {
		if c.ID != 0 {
			populated = append(populated, c)
		}
	}

	return match.MatchReleaseFromOcr(extraction, populated), nil
}

// applyLearnedCorrection returns a match against a previously confirmed
// release when the extraction carries a barcode or catalogue number the
// correction store knows. Lookup failures only log; they never fail the scan.
func (a *Appraiser) applyLearnedCorrection(ctx context.Context, extraction *model.OcrExtraction) *model.ScoredMatch {
	barcode := match.NormalizeDigits(extraction.Barcode)
	catno := match.NormalizeText(extraction.CatalogueNumber)
	corr, err := a.store.FindCorrection(ctx, barcode, catno)
	if err != nil {
		zap.L().Warn("appraise: correction lookup failed", zap.Error(err))
		return nil
	}
	if corr == nil {
		return nil
	}
	return match.ResolveReleaseCorrection(&corr.Release, extraction, nil)
}

// marketView returns the merged market record for a release, from cache when
// fresh. Secondary source failures degrade to a narrower merge; only the
// primary source is required.
func (a *Appraiser) marketView(ctx context.Context, release *model.ReleaseDetails) (*model.UnifiedMarketRecord, error) {
	log := zap.L().With(zap.Int64("release_id", release.ID))

	if cached, err := a.store.GetCachedMarket(ctx, release.ID); err != nil {
		log.Warn("appraise: market cache read failed", zap.Error(err))
	} else if cached != nil {
		log.Debug("appraise: market cache hit")
		return cached, nil
	}

	sources := make(map[string]*model.MarketSourceRecord)
	mu := &sourceMap{records: sources}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rel, err := a.discogs.Release(gctx, release.ID)
		if err != nil {
			return eris.Wrapf(err, "appraise: fetch market release %d", release.ID)
		}
		if rel == nil {
			return eris.Errorf("appraise: release %d not found", release.ID)
		}
		stats, err := a.discogs.MarketplaceStats(gctx, release.ID)
		if err != nil {
			log.Warn("appraise: marketplace stats failed", zap.Error(err))
		}
		suggestions, err := a.discogs.PriceSuggestions(gctx, release.ID)
		if err != nil {
			log.Warn("appraise: price suggestions failed", zap.Error(err))
		}
		mu.set(market.SourceDiscogs, discogsMarketRecord(rel, stats, suggestions))
		return nil
	})

	artist := artistLine(release)
	if a.musicbrainz != nil && artist != "" && release.Title != "" {
		g.Go(func() error {
			releases, err := a.musicbrainz.SearchReleases(gctx, artist, release.Title, 1)
			if err != nil {
				log.Warn("appraise: musicbrainz search failed", zap.Error(err))
				return nil
			}
			if len(releases) > 0 {
				mu.set(market.SourceMusicBrainz, musicbrainzMarketRecord(&releases[0]))
			}
			return nil
		})
	}

	if a.ebay != nil && artist != "" && release.Title != "" {
		g.Go(func() error {
			query := artist + " " + release.Title + " vinyl"
			items, err := a.ebay.SearchListings(gctx, query, 50)
			if err != nil {
				log.Warn("appraise: ebay search failed", zap.Error(err))
				return nil
			}
			mu.set(market.SourceEbay, ebayMarketRecord(items))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	unified := market.Aggregate(sources, a.settings.Sources)

	if err := a.store.SetCachedMarket(ctx, release.ID, unified, a.settings.CacheTTL); err != nil {
		log.Warn("appraise: market cache write failed", zap.Error(err))
	}
	return &unified, nil
}

// sourceMap guards concurrent writes from the per-source fetch goroutines.
type sourceMap struct {
	mu      sync.Mutex
	records map[string]*model.MarketSourceRecord
}

func (s *sourceMap) set(name string, rec *model.MarketSourceRecord) {
	if rec == nil {
		return
	}
	s.mu.Lock()
	s.records[name] = rec
	s.mu.Unlock()
}

func artistLine(release *model.ReleaseDetails) string {
	var names []string
	for _, a := range release.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
