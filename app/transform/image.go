package transform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/lysyi3m/rss-relay/app/errs"
)

var (
	mediaTagRe  = regexp.MustCompile(`(?is)<media:content\b[^>]*>`)
	attributeRe = regexp.MustCompile(`([\w:-]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	imageExtRe  = regexp.MustCompile(`(?i)\.(?:jpe?g|png|gif|webp)$`)
	safeURLRe   = regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+$`)

	trustedMediaSegments = []string{
		"pbs.twimg.com/media/",
	}
)

// findImage returns the url of the first media attachment whose medium is
// "image", or "" when there is none.
func findImage(raw string) string {
	for _, tag := range mediaTagRe.FindAllString(raw, -1) {
		attrs := parseAttributes(tag)
		if strings.EqualFold(attrs["medium"], "image") && attrs["url"] != "" {
			return attrs["url"]
		}
	}
	return ""
}

func parseAttributes(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attributeRe.FindAllStringSubmatch(tag, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		attrs[strings.ToLower(m[1])] = value
	}
	return attrs
}

// ValidateImageURL normalizes candidate and checks that it is an absolute
// http(s) URL made of safe characters that either points at a trusted media
// path or ends in an image extension.
func ValidateImageURL(candidate string) (string, error) {
	normalized := strings.TrimSpace(DecodeEntities(candidate))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty image url", errs.ErrValidation)
	}

	if !safeURLRe.MatchString(normalized) {
		return "", fmt.Errorf("%w: image url contains unsafe characters: %q", errs.ErrValidation, normalized)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: malformed image url: %w", errs.ErrValidation, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: image url is not absolute http(s): %q", errs.ErrValidation, normalized)
	}

	if !isTrustedMedia(normalized) && !imageExtRe.MatchString(u.Path) {
		return "", fmt.Errorf("%w: image url is neither trusted media nor an image file: %q", errs.ErrValidation, normalized)
	}

	return normalized, nil
}

func isTrustedMedia(u string) bool {
	for _, segment := range trustedMediaSegments {
		if strings.Contains(u, segment) {
			return true
		}
	}
	return false
}
