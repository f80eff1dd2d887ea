package textanalyzer

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	imgTag     = regexp.MustCompile(`(?i)<img[^>]*>`)
	altAttr    = regexp.MustCompile(`(?i)alt=["'][^"']*["']`)
	anchorTag  = regexp.MustCompile(`(?i)<a(\s[^>]*)?>`)
	targetAttr = regexp.MustCompile(`(?i)target=["'][^"']*["']`)
	relAttr    = regexp.MustCompile(`(?i)rel=["'][^"']*["']`)
)

const (
	blankTarget = `target="_blank"`
	safeRel     = `rel="noopener noreferrer"`
)

// AuditHTML lists <img> tags without an alt attribute and rewrites every <a> opening tag
// to open in a new tab with rel="noopener noreferrer". Nothing else in the markup changes.
func AuditHTML(html string) HTMLAudit {
	audit := HTMLAudit{MissingAltImages: []string{}}

	for _, tag := range imgTag.FindAllString(html, -1) {
		if !altAttr.MatchString(tag) {
			audit.MissingAltImages = append(audit.MissingAltImages, fmt.Sprintf("image %d: %s", len(audit.MissingAltImages)+1, tag))
		}
	}

	audit.Cleaned = anchorTag.ReplaceAllStringFunc(html, func(tag string) string {
		audit.LinksRewritten++
		return rewriteAnchor(tag)
	})
	return audit
}

func rewriteAnchor(tag string) string {
	if targetAttr.MatchString(tag) {
		tag = targetAttr.ReplaceAllString(tag, blankTarget)
	} else {
		tag = tag[:2] + " " + blankTarget + tag[2:]
	}

	if relAttr.MatchString(tag) {
		return relAttr.ReplaceAllString(tag, safeRel)
	}
	body := strings.TrimSuffix(tag, ">")
	return body + " " + safeRel + ">"
}
