package resolver

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind classifies a human-supplied reference.
type Kind int

const (
	KindSlug Kind = iota
	KindURL
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindSlug:
		return "slug"
	case KindURL:
		return "url"
	case KindSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Reference is a parsed user input. For KindURL and KindSlug, Slug holds
// the lookup key; for KindSearch, Query holds the keyword text.
type Reference struct {
	Kind  Kind
	Raw   string
	Slug  string
	Query string
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ParseReference classifies s. Anything that is neither an http(s) URL nor
// a single lowercase slug token is treated as a search keyword.
func ParseReference(s string) Reference {
	raw := strings.TrimSpace(s)

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Reference{Kind: KindURL, Raw: raw, Slug: slugFromURL(raw)}
	}

	if slugPattern.MatchString(raw) {
		return Reference{Kind: KindSlug, Raw: raw, Slug: raw}
	}

	return Reference{Kind: KindSearch, Raw: raw, Query: raw}
}

// SlugReference wraps an already-formatted slug, such as one produced by a
// SlugTemplate.
func SlugReference(slug string) Reference {
	return Reference{Kind: KindSlug, Raw: slug, Slug: slug}
}

// slugFromURL returns the last non-empty path segment, ignoring query and
// fragment.
func slugFromURL(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			return seg
		}
	}
	return ""
}
