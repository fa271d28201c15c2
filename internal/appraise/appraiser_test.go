package appraise

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/store"
	"github.com/crate-scout/vinyl-cli/pkg/discogs"
	"github.com/crate-scout/vinyl-cli/pkg/ebay"
	"github.com/crate-scout/vinyl-cli/pkg/musicbrainz"
)

// --- fakes ---

type fakeStore struct {
	scans       map[string]*model.Scan
	corrections []model.Correction
	cache       map[int64]*model.UnifiedMarketRecord
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scans: map[string]*model.Scan{},
		cache: map[int64]*model.UnifiedMarketRecord{},
	}
}

func (f *fakeStore) CreateScan(_ context.Context, extraction model.OcrExtraction) (*model.Scan, error) {
	f.nextID++
	sc := &model.Scan{
		ID:         "scan-" + strconv.Itoa(f.nextID),
		Extraction: extraction,
		Status:     model.ScanStatusScanned,
		CreatedAt:  time.Now(),
	}
	f.scans[sc.ID] = sc
	return sc, nil
}

func (f *fakeStore) UpdateScanMatch(_ context.Context, scanID string, match *model.ScoredMatch) error {
	sc := f.scans[scanID]
	sc.Match = match
	if match != nil {
		sc.Status = model.ScanStatusIdentified
	} else {
		sc.Status = model.ScanStatusUnmatched
	}
	return nil
}

func (f *fakeStore) UpdateScanAppraisal(_ context.Context, scanID string, market *model.UnifiedMarketRecord, valuation *model.Valuation) error {
	sc := f.scans[scanID]
	sc.Market = market
	sc.Valuation = valuation
	sc.Status = model.ScanStatusAppraised
	return nil
}

func (f *fakeStore) GetScan(_ context.Context, scanID string) (*model.Scan, error) {
	sc := f.scans[scanID]
	if sc == nil {
		return nil, assertError("scan not found")
	}
	copied := *sc
	return &copied, nil
}

func (f *fakeStore) ListScans(_ context.Context, _ store.ScanFilter) ([]model.Scan, error) {
	var out []model.Scan
	for _, sc := range f.scans {
		out = append(out, *sc)
	}
	return out, nil
}

func (f *fakeStore) SaveCorrection(_ context.Context, c model.Correction) (*model.Correction, error) {
	c.ID = "corr-1"
	f.corrections = append(f.corrections, c)
	return &c, nil
}

func (f *fakeStore) FindCorrection(_ context.Context, barcode, catno string) (*model.Correction, error) {
	for i := range f.corrections {
		c := &f.corrections[i]
		if (barcode != "" && c.Barcode == barcode) || (catno != "" && c.CatalogueNumber == catno) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetCachedMarket(_ context.Context, releaseID int64) (*model.UnifiedMarketRecord, error) {
	return f.cache[releaseID], nil
}

func (f *fakeStore) SetCachedMarket(_ context.Context, releaseID int64, record model.UnifiedMarketRecord, _ time.Duration) error {
	f.cache[releaseID] = &record
	return nil
}

func (f *fakeStore) DeleteExpiredMarket(context.Context) (int, error) { return 0, nil }
func (f *fakeStore) Migrate(context.Context) error                   { return nil }
func (f *fakeStore) Close() error                                    { return nil }

type assertError string

func (e assertError) Error() string { return string(e) }

type fakeDiscogs struct {
	searchResults []discogs.SearchResult
	releases      map[int64]*discogs.Release
	stats         *discogs.MarketplaceStats
	suggestions   discogs.PriceSuggestions
	releaseCalls  int
}

func (f *fakeDiscogs) SearchReleases(context.Context, discogs.SearchRequest) ([]discogs.SearchResult, error) {
	return f.searchResults, nil
}

func (f *fakeDiscogs) Release(_ context.Context, id int64) (*discogs.Release, error) {
	f.releaseCalls++
	return f.releases[id], nil
}

func (f *fakeDiscogs) PriceSuggestions(context.Context, int64) (discogs.PriceSuggestions, error) {
	return f.suggestions, nil
}

func (f *fakeDiscogs) MarketplaceStats(context.Context, int64) (*discogs.MarketplaceStats, error) {
	return f.stats, nil
}

type fakeMusicBrainz struct {
	releases []musicbrainz.Release
}

func (f *fakeMusicBrainz) SearchReleases(context.Context, string, string, int) ([]musicbrainz.Release, error) {
	return f.releases, nil
}

func (f *fakeMusicBrainz) Release(context.Context, string) (*musicbrainz.Release, error) {
	return nil, nil
}

type fakeEbay struct {
	items []ebay.ItemSummary
}

func (f *fakeEbay) SearchListings(context.Context, string, int) ([]ebay.ItemSummary, error) {
	return f.items, nil
}

// --- fixtures ---

func autobahnRelease() *discogs.Release {
	return &discogs.Release{
		ID:      1877362,
		Title:   "Autobahn",
		Year:    1974,
		Country: "Germany",
		Artists: []discogs.Artist{{Name: "Kraftwerk"}},
		Labels:  []discogs.Label{{Name: "Philips", CatNo: "6305 231"}},
		Formats: []discogs.Format{{Name: "Vinyl", Descriptions: []string{"LP", "Album"}}},
		Identifiers: []discogs.Identifier{
			{Type: "Barcode", Value: "5099750219515"},
		},
		Community:  discogs.Community{Have: 5000, Want: 1200},
		NumForSale: 12,
	}
}

func decoyRelease() *discogs.Release {
	return &discogs.Release{
		ID:      999,
		Title:   "Autobahn",
		Year:    1985,
		Country: "UK",
		Artists: []discogs.Artist{{Name: "Kraftwerk"}},
		Labels:  []discogs.Label{{Name: "EMI", CatNo: "EMS 1207"}},
	}
}

func newTestAppraiser(dc *fakeDiscogs, st *fakeStore) *Appraiser {
	return New(st, dc, &fakeMusicBrainz{}, &fakeEbay{}, nil, Settings{})
}

// --- tests ---

func TestIdentify_PicksBestCandidate(t *testing.T) {
	dc := &fakeDiscogs{
		searchResults: []discogs.SearchResult{{ID: 999}, {ID: 1877362}},
		releases: map[int64]*discogs.Release{
			999:     decoyRelease(),
			1877362: autobahnRelease(),
		},
	}
	st := newFakeStore()
	a := newTestAppraiser(dc, st)

	scan, err := a.Identify(context.Background(), model.OcrExtraction{
		Artist:  "Kraftwerk",
		Title:   "Autobahn",
		Barcode: "5 099750 219515",
		Country: "Germany",
	})
	require.NoError(t, err)
	require.NotNil(t, scan.Match)
	assert.Equal(t, int64(1877362), scan.Match.Release.ID)
	assert.Equal(t, model.ScanStatusIdentified, scan.Status)
	assert.Equal(t, model.ScanStatusIdentified, st.scans[scan.ID].Status)
}

func TestIdentify_MissingArtist_Unmatched(t *testing.T) {
	dc := &fakeDiscogs{}
	st := newFakeStore()
	a := newTestAppraiser(dc, st)

	scan, err := a.Identify(context.Background(), model.OcrExtraction{Title: "Autobahn"})
	require.NoError(t, err)
	assert.Nil(t, scan.Match)
	assert.Equal(t, model.ScanStatusUnmatched, scan.Status)
}

func TestIdentify_LearnedCorrectionWins(t *testing.T) {
	dc := &fakeDiscogs{
		searchResults: []discogs.SearchResult{{ID: 999}},
		releases:      map[int64]*discogs.Release{999: decoyRelease()},
	}
	st := newFakeStore()
	st.corrections = []model.Correction{{
		ID:      "corr-0",
		Barcode: "5099750219515",
		Release: model.ReleaseDetails{
			ID:      1877362,
			Title:   "Autobahn",
			Artists: []model.ReleaseArtist{{Name: "Kraftwerk"}},
			Identifiers: []model.ReleaseIdentifier{
				{Type: "Barcode", Value: "5099750219515"},
			},
		},
	}}
	a := newTestAppraiser(dc, st)

	scan, err := a.Identify(context.Background(), model.OcrExtraction{
		Artist:  "Kraftwerk",
		Title:   "Autobahn",
		Barcode: "5 099750 219515",
	})
	require.NoError(t, err)
	require.NotNil(t, scan.Match)
	assert.Equal(t, int64(1877362), scan.Match.Release.ID)
}

func TestAppraise_FullFlow(t *testing.T) {
	dc := &fakeDiscogs{
		releases: map[int64]*discogs.Release{1877362: autobahnRelease()},
		stats:    &discogs.MarketplaceStats{NumForSale: 12},
		suggestions: discogs.PriceSuggestions{
			"Mint (M)":             {Value: 120, Currency: "USD"},
			"Near Mint (NM or M-)": {Value: 100, Currency: "USD"},
			"Very Good Plus (VG+)": {Value: 80, Currency: "USD"},
			"Very Good (VG)":       {Value: 60, Currency: "USD"},
			"Good Plus (G+)":       {Value: 40, Currency: "USD"},
			"Good (G)":             {Value: 30, Currency: "USD"},
		},
	}
	st := newFakeStore()
	a := newTestAppraiser(dc, st)

	scan, err := st.CreateScan(context.Background(), model.OcrExtraction{Artist: "Kraftwerk", Title: "Autobahn"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateScanMatch(context.Background(), scan.ID, &model.ScoredMatch{
		Release: model.ReleaseDetails{
			ID:      1877362,
			Title:   "Autobahn",
			Artists: []model.ReleaseArtist{{Name: "Kraftwerk"}},
		},
		Score: 65, Confidence: model.ConfidenceHigh,
	}))

	got, err := a.Appraise(context.Background(), scan.ID, model.ItemCondition{
		Vinyl:  model.GradeVGPlus,
		Sleeve: model.GradeVG,
	})
	require.NoError(t, err)
	require.NotNil(t, got.Market)
	assert.Contains(t, got.Market.Sources, "discogs")
	require.NotNil(t, got.Market.Pricing)
	require.NotNil(t, got.Market.Pricing.EstimatedSold)
	require.NotNil(t, got.Valuation)
	assert.Greater(t, got.Valuation.EstimatedValue, float64(0))
	assert.Equal(t, model.ScanStatusAppraised, got.Status)

	// Merged view is cached for the release.
	cached, err := st.GetCachedMarket(context.Background(), 1877362)
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestAppraise_CacheHitSkipsFetch(t *testing.T) {
	dc := &fakeDiscogs{}
	st := newFakeStore()
	st.cache[1877362] = &model.UnifiedMarketRecord{
		Sources:    []string{"discogs"},
		Confidence: model.ConfidenceMedium,
	}
	a := newTestAppraiser(dc, st)

	scan, err := st.CreateScan(context.Background(), model.OcrExtraction{Artist: "Kraftwerk", Title: "Autobahn"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateScanMatch(context.Background(), scan.ID, &model.ScoredMatch{
		Release: model.ReleaseDetails{ID: 1877362},
	}))

	got, err := a.Appraise(context.Background(), scan.ID, model.ItemCondition{})
	require.NoError(t, err)
	require.NotNil(t, got.Market)
	assert.Equal(t, 0, dc.releaseCalls)
}

func TestAppraise_NoMatch_Errors(t *testing.T) {
	st := newFakeStore()
	a := newTestAppraiser(&fakeDiscogs{}, st)

	scan, err := st.CreateScan(context.Background(), model.OcrExtraction{})
	require.NoError(t, err)

	_, err = a.Appraise(context.Background(), scan.ID, model.ItemCondition{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identified release")
}

func TestCorrect_SavesCorrectionAndRescores(t *testing.T) {
	dc := &fakeDiscogs{
		releases: map[int64]*discogs.Release{1877362: autobahnRelease()},
	}
	st := newFakeStore()
	a := newTestAppraiser(dc, st)

	scan, err := st.CreateScan(context.Background(), model.OcrExtraction{
		Artist:  "Kraftwerk",
		Title:   "Autobahn",
		Barcode: "5 099750 219515",
	})
	require.NoError(t, err)
	require.NoError(t, st.UpdateScanMatch(context.Background(), scan.ID, &model.ScoredMatch{
		Release: model.ReleaseDetails{ID: 999}, Score: 10, Confidence: model.ConfidenceLow,
	}))

	got, err := a.Correct(context.Background(), scan.ID, 1877362, nil)
	require.NoError(t, err)
	require.NotNil(t, got.Match)
	assert.Equal(t, int64(1877362), got.Match.Release.ID)

	require.Len(t, st.corrections, 1)
	assert.Equal(t, "5099750219515", st.corrections[0].Barcode)
	assert.Equal(t, scan.ID, st.corrections[0].ScanID)

	// A later scan of the same pressing resolves through the correction.
	later, err := a.Identify(context.Background(), model.OcrExtraction{
		Artist:  "Kraftwerk",
		Title:   "Autobahn",
		Barcode: "5099750219515",
	})
	require.NoError(t, err)
	require.NotNil(t, later.Match)
	assert.Equal(t, int64(1877362), later.Match.Release.ID)
}
