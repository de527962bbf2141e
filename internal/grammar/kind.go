package grammar

import (
	"fmt"
	"strings"
)

// KindName is the configuration spelling of a matcher kind.
type KindName string

const (
	KindHeaderValue   KindName = "header_value"
	KindContentLength KindName = "content_length"
	KindEntityTag     KindName = "entity_tag"
	KindBoundary      KindName = "boundary"
	KindTokenSet      KindName = "token_set"
	KindPresence      KindName = "presence"
)

const (
	DefaultBoundaryPrefix = "multipart/form-data"
	DefaultBoundaryParam  = "boundary"
)

// MatcherKind describes how a header value is matched. The set of
// implementations is closed; each variant carries only the data its
// automaton fragment needs.
type MatcherKind interface {
	Name() KindName
	matcherKind()
}

// HeaderValue captures the whole header value.
type HeaderValue struct{}

// ContentLength accepts a decimal length and nothing else.
type ContentLength struct{}

// EntityTag accepts "*" or a list of (weak) entity tags, one event per tag.
type EntityTag struct{}

// Boundary matches a media type prefix and extracts one of its parameters.
type Boundary struct {
	Prefix string
	Param  string
}

// TokenSet fires for every list element equal to one of Values.
type TokenSet struct {
	Values []string
}

// Presence fires once when the header is present, whatever its value.
type Presence struct{}

func (HeaderValue) Name() KindName   { return KindHeaderValue }
func (ContentLength) Name() KindName { return KindContentLength }
func (EntityTag) Name() KindName     { return KindEntityTag }
func (Boundary) Name() KindName      { return KindBoundary }
func (TokenSet) Name() KindName      { return KindTokenSet }
func (Presence) Name() KindName      { return KindPresence }

func (HeaderValue) matcherKind()   {}
func (ContentLength) matcherKind() {}
func (EntityTag) matcherKind()     {}
func (Boundary) matcherKind()      {}
func (TokenSet) matcherKind()      {}
func (Presence) matcherKind()      {}

// PrefixOrDefault returns the media type prefix the boundary is searched under.
func (b Boundary) PrefixOrDefault() string {
	if b.Prefix == "" {
		return DefaultBoundaryPrefix
	}
	return b.Prefix
}

// ParamOrDefault returns the parameter whose value is extracted.
func (b Boundary) ParamOrDefault() string {
	if b.Param == "" {
		return DefaultBoundaryParam
	}
	return b.Param
}

// KindOptions carries the per-variant data read from configuration.
type KindOptions struct {
	Values []string
	Prefix string
	Param  string
}

// ParseKind maps a configured kind name to its variant.
func ParseKind(name string, opts KindOptions) (MatcherKind, error) {
	switch KindName(strings.TrimSpace(name)) {
	case KindHeaderValue:
		return HeaderValue{}, nil
	case KindContentLength:
		return ContentLength{}, nil
	case KindEntityTag:
		return EntityTag{}, nil
	case KindBoundary:
		return Boundary{Prefix: opts.Prefix, Param: opts.Param}, nil
	case KindTokenSet:
		return TokenSet{Values: append([]string(nil), opts.Values...)}, nil
	case KindPresence:
		return Presence{}, nil
	default:
		return nil, fmt.Errorf("unknown matcher kind %q", name)
	}
}
