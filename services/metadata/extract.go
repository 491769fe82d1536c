package metadata

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	youtubeWatchURL = "https://www.youtube.com/watch?v="
	// watch-provider region; the service only reports US availability
	watchRegion = "US"
)

// legalAnimePlatforms is matched case-insensitively as a substring of the
// external link site name.
var legalAnimePlatforms = []string{
	"Crunchyroll",
	"Funimation",
	"Netflix",
	"Hulu",
	"Amazon",
	"Hidive",
	"VRV",
	"Disney Plus",
	"HBO Max",
}

// tmdbTrailerURL picks the first YouTube trailer, falling back to the first
// YouTube teaser.
func tmdbTrailerURL(videos *tmdbVideos) mo.Option[string] {
	if videos == nil || len(videos.Results) == 0 {
		return mo.None[string]()
	}
	for _, videoType := range []string{"Trailer", "Teaser"} {
		video, found := lo.Find(videos.Results, func(v tmdbVideo) bool {
			return v.Type == videoType && v.Site == "YouTube" && strings.TrimSpace(v.Key) != ""
		})
		if found {
			return mo.Some(youtubeWatchURL + strings.TrimSpace(video.Key))
		}
	}
	return mo.None[string]()
}

// anilistTrailerURL only trusts trailers hosted on youtube; AniList reports the
// site in lower case.
func anilistTrailerURL(trailer *anilistTrailer) mo.Option[string] {
	if trailer == nil || strings.TrimSpace(trailer.ID) == "" {
		return mo.None[string]()
	}
	if trailer.Site != "youtube" {
		return mo.None[string]()
	}
	return mo.Some(youtubeWatchURL + strings.TrimSpace(trailer.ID))
}

// tmdbWatchProviderNames lists US providers in flatrate, buy, rent priority.
func tmdbWatchProviderNames(wp *tmdbWatchProviders) []string {
	if wp == nil || wp.Results == nil {
		return []string{}
	}
	region, ok := wp.Results[watchRegion]
	if !ok {
		return []string{}
	}
	var names []string
	for _, bucket := range [][]tmdbWatchProvider{region.Flatrate, region.Buy, region.Rent} {
		for _, p := range bucket {
			names = append(names, strings.TrimSpace(p.ProviderName))
		}
	}
	return distinctNames(names)
}

// anilistProviders keeps external links that point at a known legal platform.
func anilistProviders(links []anilistExternalLink) []string {
	names := lo.FilterMap(links, func(link anilistExternalLink, _ int) (string, bool) {
		site := strings.ToLower(link.Site)
		legal := lo.ContainsBy(legalAnimePlatforms, func(platform string) bool {
			return strings.Contains(site, strings.ToLower(platform))
		})
		return strings.TrimSpace(link.Site), legal
	})
	return distinctNames(names)
}

// distinctNames drops blanks and duplicates, keeping first-seen order.
func distinctNames(names []string) []string {
	out := lo.Uniq(lo.Filter(names, func(name string, _ int) bool { return name != "" }))
	if out == nil {
		return []string{}
	}
	return out
}
