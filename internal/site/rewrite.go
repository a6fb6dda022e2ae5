package site

import (
	"net/url"
	"regexp"
	"strings"
)

// linkPattern matches inline markdown links and images: (!?)[label](target).
var linkPattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)]+)\)`)

// RewriteLinks rewrites every link and image in a markdown document written
// for the page fromSlug so that it points at local files:
//
//   - same-origin assets go to the shared assets directory,
//   - pages of the section go to "<slug>.md" with the fragment kept,
//   - fragment-only, foreign and already relative links are left alone.
//
// Relative targets are computed from the page's own directory, so a page
// at the top of a language directory gets "../assets/..." and "<slug>.md".
func (s *Site) RewriteLinks(markdown, fromSlug string) string {
	return linkPattern.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := linkPattern.FindStringSubmatch(match)
		bang, label, target := sub[1], sub[2], sub[3]

		dest, title := splitTarget(target)
		rewritten, ok := s.rewriteURL(dest, fromSlug)
		if !ok {
			return match
		}
		return bang + "[" + label + "](" + rewritten + title + ")"
	})
}

// splitTarget separates a link destination from an optional title
// (`url "title"`). The title keeps its leading whitespace.
func splitTarget(target string) (string, string) {
	trimmed := strings.TrimSpace(target)
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		return trimmed[:i], trimmed[i:]
	}
	return trimmed, ""
}

// rewriteURL returns the local replacement for a link destination, or false
// when the destination must stay as it is.
func (s *Site) rewriteURL(raw, fromSlug string) (string, bool) {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	imagesPrefix := "/" + s.section + "/images/"

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if !strings.EqualFold(u.Host, s.base.Host) {
			return "", false
		}
		if strings.HasPrefix(u.Path, imagesPrefix) || s.IsAsset(raw) {
			return s.assetLink(u.Path, raw, fromSlug)
		}
		if s.inSection(u.Path) {
			return s.docLink(u, fromSlug), true
		}
		return "", false

	case u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/"):
		// mailto:, protocol-relative and already relative links.
		return "", false

	case strings.HasPrefix(u.Path, imagesPrefix):
		return s.assetLink(u.Path, raw, fromSlug)

	case s.inSection(u.Path) && !s.IsAsset(s.Resolve(raw)):
		return s.docLink(u, fromSlug), true

	case s.IsAsset(s.Resolve(raw)):
		return s.assetLink(u.Path, raw, fromSlug)
	}

	return "", false
}

// inSection reports whether a URL path is the section root or below it.
func (s *Site) inSection(p string) bool {
	return p == "/"+s.section || strings.HasPrefix(p, "/"+s.section+"/")
}

// docLink builds the relative link to a sibling page, keeping the fragment.
func (s *Site) docLink(u *url.URL, fromSlug string) string {
	link := strings.Repeat("../", depth(fromSlug)) + escapePath(s.Slug(u.Path)+".md")
	if frag := u.EscapedFragment(); frag != "" {
		link += "#" + frag
	}
	return link
}

// assetLink builds the relative link into the shared assets directory.
func (s *Site) assetLink(urlPath, raw, fromSlug string) (string, bool) {
	rel, err := cleanAssetPath(urlPath, raw)
	if err != nil {
		return "", false
	}
	return strings.Repeat("../", depth(fromSlug)+1) + AssetsDirName + "/" + escapePath(rel), true
}

// escapePath percent-encodes a relative slash path for use as a link
// destination. Files on disk keep the decoded name.
func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
