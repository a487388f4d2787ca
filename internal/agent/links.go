package agent

import (
	"regexp"
	"strings"
)

var (
	listingLinkRe = regexp.MustCompile(`https?://coinmarketcap\.com/currencies/[^/\s]+/?`)
	listingSlugRe = regexp.MustCompile(`coinmarketcap\.com/currencies/([^/\s?#]+)`)
)

// FindListingLink returns the first CoinMarketCap listing link inside text.
func FindListingLink(text string) (string, bool) {
	link := listingLinkRe.FindString(text)
	return link, link != ""
}

// IsListingLink reports whether s itself starts with a listing link.
func IsListingLink(s string) bool {
	loc := listingLinkRe.FindStringIndex(strings.TrimSpace(s))
	return loc != nil && loc[0] == 0
}

// ExtractSlug pulls the token slug out of a listing link.
func ExtractSlug(link string) (string, bool) {
	m := listingSlugRe.FindStringSubmatch(link)
	if len(m) < 2 {
		return "", false
	}
	slug := strings.ToLower(strings.TrimSpace(m[1]))
	if slug == "" {
		return "", false
	}
	return slug, true
}
