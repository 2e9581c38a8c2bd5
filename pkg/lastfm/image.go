package lastfm

import "strings"

// PlaceholderHash identifies Last.fm's generic "no image" star artwork.
// Any image URL containing it carries no real artwork.
const PlaceholderHash = "2a96cbd8b46e442fc41c2b86b821562f"

// IsPlaceholder reports whether url is blank or Last.fm's placeholder image.
func IsPlaceholder(url string) bool {
	if strings.TrimSpace(url) == "" {
		return true
	}
	return strings.Contains(url, PlaceholderHash)
}

// BestImage returns the largest non-blank image URL. Last.fm orders image
// variants from small to mega, so the last populated entry wins.
func BestImage(images []Image) string {
	for i := len(images) - 1; i >= 0; i-- {
		if u := strings.TrimSpace(images[i].URL); u != "" {
			return u
		}
	}
	return ""
}
