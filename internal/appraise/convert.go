package appraise

import (
	"sort"
	"strconv"
	"strings"

	"github.com/crate-scout/vinyl-cli/internal/market"
	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/pkg/discogs"
	"github.com/crate-scout/vinyl-cli/pkg/ebay"
	"github.com/crate-scout/vinyl-cli/pkg/musicbrainz"
)

// releaseFromDiscogs maps a Discogs release onto the canonical catalog shape
// the matcher scores against.
func releaseFromDiscogs(r *discogs.Release) model.ReleaseDetails {
	details := model.ReleaseDetails{
		ID:      r.ID,
		Title:   r.Title,
		Year:    r.Year,
		Country: r.Country,
		Notes:   r.Notes,
		URI:     r.URI,
	}
	for _, a := range r.Artists {
		details.Artists = append(details.Artists, model.ReleaseArtist{Name: a.Name})
	}
	for _, l := range r.Labels {
		details.Labels = append(details.Labels, model.ReleaseLabel{Name: l.Name, CatNo: l.CatNo})
	}
	for _, f := range r.Formats {
		details.Formats = append(details.Formats, model.ReleaseFormat{
			Name:         f.Name,
			Text:         f.Text,
			Descriptions: f.Descriptions,
		})
	}
	for _, id := range r.Identifiers {
		details.Identifiers = append(details.Identifiers, model.ReleaseIdentifier{
			Type:        id.Type,
			Value:       id.Value,
			Description: id.Description,
		})
	}
	for _, img := range r.Images {
		details.Images = append(details.Images, model.ReleaseImage{Type: img.Type, URI: img.URI})
	}
	return details
}

// discogsMarketRecord builds the primary source record. Listing prices come
// from the per-grade price suggestions so the statistics span the condition
// spectrum the marketplace actually quotes.
func discogsMarketRecord(r *discogs.Release, stats *discogs.MarketplaceStats, suggestions discogs.PriceSuggestions) *model.MarketSourceRecord {
	if r == nil {
		return nil
	}

	rec := &model.MarketSourceRecord{
		Source:  market.SourceDiscogs,
		Artist:  joinArtists(r.Artists),
		Title:   r.Title,
		Year:    r.Year,
		Country: r.Country,
	}
	if len(r.Labels) > 0 {
		rec.Label = r.Labels[0].Name
	}
	if len(r.Formats) > 0 {
		rec.Format = r.Formats[0].Name
	}
	if len(r.Genres) > 0 {
		rec.Genre = r.Genres[0]
	}
	for _, t := range r.Tracklist {
		rec.Tracklist = append(rec.Tracklist, t.Title)
	}
	for _, img := range r.Images {
		rec.Images = append(rec.Images, img.URI)
	}
	if len(r.Identifiers) > 0 {
		rec.Identifiers = make(map[string]string, len(r.Identifiers))
		for _, id := range r.Identifiers {
			key := strings.ToLower(id.Type)
			if _, seen := rec.Identifiers[key]; !seen {
				rec.Identifiers[key] = id.Value
			}
		}
	}
	if r.Community.Have > 0 || r.Community.Want > 0 {
		rec.Community = &model.CommunityStats{Have: r.Community.Have, Want: r.Community.Want}
	}

	for _, p := range suggestions {
		if p.Value > 0 {
			rec.ListingPrices = append(rec.ListingPrices, p.Value)
		}
	}
	sort.Float64s(rec.ListingPrices)

	rec.ListingCount = r.NumForSale
	if stats != nil {
		rec.ListingCount = stats.NumForSale
	}
	return rec
}

// musicbrainzMarketRecord builds the bibliographic gap-fill record.
func musicbrainzMarketRecord(r *musicbrainz.Release) *model.MarketSourceRecord {
	if r == nil {
		return nil
	}

	rec := &model.MarketSourceRecord{
		Source:  market.SourceMusicBrainz,
		Title:   r.Title,
		Country: r.Country,
	}
	var names []string
	for _, c := range r.Artists {
		names = append(names, c.Name)
	}
	rec.Artist = strings.Join(names, ", ")

	if len(r.Date) >= 4 {
		if year, err := strconv.Atoi(r.Date[:4]); err == nil {
			rec.Year = year
		}
	}
	if len(r.LabelInfo) > 0 {
		li := r.LabelInfo[0]
		if li.Label != nil {
			rec.Label = li.Label.Name
		}
		if li.CatalogNumber != "" {
			rec.Identifiers = map[string]string{"catno": li.CatalogNumber}
		}
	}
	if r.Barcode != "" {
		if rec.Identifiers == nil {
			rec.Identifiers = map[string]string{}
		}
		rec.Identifiers["barcode"] = r.Barcode
	}
	for _, m := range r.Media {
		if rec.Format == "" {
			rec.Format = m.Format
		}
		for _, t := range m.Tracks {
			rec.Tracklist = append(rec.Tracklist, t.Title)
		}
	}
	return rec
}

// ebayMarketRecord builds a provenance-only record from live listings.
func ebayMarketRecord(items []ebay.ItemSummary) *model.MarketSourceRecord {
	if len(items) == 0 {
		return nil
	}

	rec := &model.MarketSourceRecord{
		Source:       market.SourceEbay,
		ListingCount: len(items),
	}
	for _, item := range items {
		if v := item.Price.Float(); v > 0 {
			rec.ListingPrices = append(rec.ListingPrices, v)
		}
	}
	return rec
}

func joinArtists(artists []discogs.Artist) string {
	var names []string
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
