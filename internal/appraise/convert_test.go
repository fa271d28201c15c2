package appraise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crate-scout/vinyl-cli/pkg/discogs"
	"github.com/crate-scout/vinyl-cli/pkg/ebay"
	"github.com/crate-scout/vinyl-cli/pkg/musicbrainz"
)

func TestReleaseFromDiscogs(t *testing.T) {
	got := releaseFromDiscogs(autobahnRelease())

	assert.Equal(t, int64(1877362), got.ID)
	assert.Equal(t, "Autobahn", got.Title)
	require.Len(t, got.Artists, 1)
	assert.Equal(t, "Kraftwerk", got.Artists[0].Name)
	require.Len(t, got.Labels, 1)
	assert.Equal(t, "6305 231", got.Labels[0].CatNo)
	require.Len(t, got.Identifiers, 1)
	assert.Equal(t, "Barcode", got.Identifiers[0].Type)
}

func TestDiscogsMarketRecord(t *testing.T) {
	rec := discogsMarketRecord(autobahnRelease(),
		&discogs.MarketplaceStats{NumForSale: 7},
		discogs.PriceSuggestions{
			"Near Mint (NM or M-)": {Value: 100},
			"Very Good (VG)":       {Value: 40},
			"Very Good Plus (VG+)": {Value: 70},
		},
	)

	require.NotNil(t, rec)
	assert.Equal(t, "discogs", rec.Source)
	assert.Equal(t, "Kraftwerk", rec.Artist)
	assert.Equal(t, []float64{40, 70, 100}, rec.ListingPrices)
	assert.Equal(t, 7, rec.ListingCount)
	require.NotNil(t, rec.Community)
	assert.Equal(t, 5000, rec.Community.Have)
	assert.Equal(t, "5099750219515", rec.Identifiers["barcode"])
}

func TestDiscogsMarketRecord_NoStatsFallsBackToRelease(t *testing.T) {
	rec := discogsMarketRecord(autobahnRelease(), nil, nil)
	require.NotNil(t, rec)
	assert.Equal(t, 12, rec.ListingCount)
	assert.Empty(t, rec.ListingPrices)
}

func TestMusicBrainzMarketRecord(t *testing.T) {
	rec := musicbrainzMarketRecord(&musicbrainz.Release{
		ID:      "b0a4b3c1",
		Title:   "Autobahn",
		Date:    "1974-11-01",
		Country: "DE",
		Barcode: "5099750219515",
		Artists: []musicbrainz.Credit{{Name: "Kraftwerk"}},
		LabelInfo: []musicbrainz.LabelInfo{
			{CatalogNumber: "6305 231", Label: &musicbrainz.Label{Name: "Philips"}},
		},
		Media: []musicbrainz.Media{
			{Format: "12\" Vinyl", Tracks: []musicbrainz.Track{{Title: "Autobahn"}, {Title: "Kometenmelodie 1"}}},
		},
	})

	require.NotNil(t, rec)
	assert.Equal(t, "musicbrainz", rec.Source)
	assert.Equal(t, 1974, rec.Year)
	assert.Equal(t, "Philips", rec.Label)
	assert.Equal(t, "12\" Vinyl", rec.Format)
	assert.Len(t, rec.Tracklist, 2)
	assert.Equal(t, "6305 231", rec.Identifiers["catno"])
	assert.Equal(t, "5099750219515", rec.Identifiers["barcode"])
}

func TestEbayMarketRecord(t *testing.T) {
	rec := ebayMarketRecord([]ebay.ItemSummary{
		{ItemID: "1", Price: ebay.Amount{Value: "45.00"}},
		{ItemID: "2", Price: ebay.Amount{Value: "not a number"}},
		{ItemID: "3", Price: ebay.Amount{Value: "60.50"}},
	})

	require.NotNil(t, rec)
	assert.Equal(t, "ebay", rec.Source)
	assert.Equal(t, 3, rec.ListingCount)
	assert.Equal(t, []float64{45, 60.5}, rec.ListingPrices)
}

func TestEbayMarketRecord_Empty(t *testing.T) {
	assert.Nil(t, ebayMarketRecord(nil))
}
