// ABOUTME: Public-page policy shared by the request filter and the view guard
// ABOUTME: Classifies request paths as public or protected, with a protected-override set

package policy

import "strings"

// Classification is the access class of a path.
type Classification int

const (
	// Public paths are reachable without authentication.
	Public Classification = iota
	// Protected paths require an authenticated session.
	Protected
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// Policy classifies request paths. It is built once at startup and never
// mutated afterwards, so it is safe for concurrent use.
//
// Three ordered rules apply:
//  1. resource prefixes (stylesheets, scripts, images) are always public,
//     including on the login page itself
//  2. the override set forces protected, even for paths also in the public set
//  3. the public set, then everything else is protected
//
// The request filter uses Classify (rules 1 and 3 only); the view guard uses
// ClassifyView (all three). The split is deliberate: the override set needs
// the resolved view identity, which the coarse filter does not guarantee.
type Policy struct {
	resourcePrefixes []string
	public           []string
	overrides        []string
}

// DefaultResourcePrefixes are the paths serving embedded static assets.
var DefaultResourcePrefixes = []string{"/styles/", "/static/"}

// DefaultPublicPages mirrors the portal's public whitelist: landing page,
// login page, the inline-protection demo page, the reports page, error
// pages, and the plain-text hello endpoint.
var DefaultPublicPages = []string{"/", "/index", "/login", "/user", "/reports", "/error/", "/hello"}

// DefaultOverrides lists pages forced back to protected by the view guard.
// /reports is public for general routing but re-protected here.
var DefaultOverrides = []string{"/reports"}

// New creates a Policy from the given pattern sets. Nil slices fall back to
// the defaults; pass empty non-nil slices to disable a set.
func New(resourcePrefixes, public, overrides []string) *Policy {
	if resourcePrefixes == nil {
		resourcePrefixes = DefaultResourcePrefixes
	}
	if public == nil {
		public = DefaultPublicPages
	}
	if overrides == nil {
		overrides = DefaultOverrides
	}
	return &Policy{
		resourcePrefixes: resourcePrefixes,
		public:           public,
		overrides:        overrides,
	}
}

// IsResource reports whether the path is a static resource path. Resource
// paths never carry authentication semantics and must always be reachable.
func (p *Policy) IsResource(path string) bool {
	for _, prefix := range p.resourcePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Classify applies the base classification used by the request filter:
// resources and public-set paths are public, everything else is protected.
// The override set is not consulted at this layer.
func (p *Policy) Classify(path string) Classification {
	if p.IsResource(path) {
		return Public
	}
	if matchesAny(path, p.public) {
		return Public
	}
	return Protected
}

// ClassifyView applies the full override-aware classification used by the
// view guard once the canonical view identity is known.
func (p *Policy) ClassifyView(viewID string) Classification {
	if p.IsResource(viewID) {
		return Public
	}
	if matchesAny(viewID, p.overrides) {
		return Protected
	}
	if matchesAny(viewID, p.public) {
		return Public
	}
	return Protected
}

// matchesAny reports whether path matches one of the patterns. Patterns
// ending in "/" match as prefixes (directory-style, e.g. "/error/");
// all other patterns match exactly. Matching is case-sensitive.
func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if path == pattern {
			return true
		}
		if len(pattern) > 1 && strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}
