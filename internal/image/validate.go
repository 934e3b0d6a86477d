package image

import (
	"regexp"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

var imageHints = []string{"image", "photo", "picture", "img", "media"}

// nonContentTerms mark logos, ads and tracking pixels.
var nonContentTerms = newMatcher(
	"logo", "icon", "avatar", "thumbnail", "ad", "banner", "sponsor",
	"1x1", "pixel", "tracking", "beacon",
)

// decorativeTerms reject <img> tags that are chrome rather than content.
var decorativeTerms = newMatcher(
	"tracking", "pixel", "ad", "advert", "sponsor", "banner", "logo", "icon",
	"avatar", "social", "share", "facebook", "twitter", "instagram", "button", "badge",
)

// matcher finds keywords in text. Short keywords (<=3 chars) must match as a
// whole word so that "ad" does not hit "upload" or "headline".
type matcher struct {
	long  []string
	short []*regexp.Regexp
}

func newMatcher(keywords ...string) *matcher {
	m := &matcher{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if len(k) <= 3 {
			m.short = append(m.short, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
			continue
		}
		m.long = append(m.long, k)
	}
	return m
}

func (m *matcher) match(text string) bool {
	text = strings.ToLower(text)
	for _, k := range m.long {
		if strings.Contains(text, k) {
			return true
		}
	}
	for _, re := range m.short {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsValidImageURL reports whether u plausibly points at a content image.
func IsValidImageURL(u string) bool {
	if len(u) < 10 {
		return false
	}
	lower := strings.ToLower(u)

	looksLikeImage := false
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			looksLikeImage = true
			break
		}
	}
	if !looksLikeImage {
		for _, hint := range imageHints {
			if strings.Contains(lower, hint) {
				looksLikeImage = true
				break
			}
		}
	}
	if !looksLikeImage {
		return false
	}

	return !nonContentTerms.match(lower)
}

// isContentImage is the looser check applied to plain <img> tags.
func isContentImage(src, alt string) bool {
	if len(strings.TrimSpace(alt)) <= 5 {
		return false
	}
	return !decorativeTerms.match(src) && !decorativeTerms.match(alt)
}
