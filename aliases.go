package geodict

import (
	"sort"
	"strings"
)

// AliasSet is the deduplicated, normalized alias set of one entity.
// The zero value is not usable; use NewAliasSet.
type AliasSet struct {
	m map[string]struct{}
}

// NewAliasSet returns a set holding the normalized forms of raw.
// Empty entries in raw are skipped.
func NewAliasSet(raw ...string) *AliasSet {
	s := &AliasSet{m: make(map[string]struct{}, len(raw)*2)}
	for _, a := range raw {
		s.Add(a)
	}
	return s
}

// Add inserts the case-normalized form of alias and, when it differs, its
// compacted form. Two aliases normalizing to the same string collapse to
// one member.
func (s *AliasSet) Add(alias string) {
	norm := NormalizeCase(alias)
	if norm == "" {
		return
	}
	s.m[norm] = struct{}{}
	if compact := Compact(alias); compact != "" && compact != norm {
		s.m[compact] = struct{}{}
	}
}

// AddIdentity inserts one of the entity's display names. Latin-script
// names follow the same rule as Add; names in other scripts are inserted
// verbatim, since compaction would reduce them to nothing. Keys and codes
// always go through Add.
func (s *AliasSet) AddIdentity(identity string) {
	if isLatin(identity) {
		s.Add(identity)
		return
	}
	s.AddVerbatim(identity)
}

// AddVerbatim inserts identity with its whitespace runs collapsed and its
// ends trimmed, but otherwise untransformed.
func (s *AliasSet) AddVerbatim(identity string) {
	if v := strings.Join(strings.Fields(identity), " "); v != "" {
		s.m[v] = struct{}{}
	}
}

// Union adds every raw alias with the Add rule.
func (s *AliasSet) Union(raw []string) {
	for _, a := range raw {
		s.Add(a)
	}
}

// Contains reports whether alias is a member, as stored.
func (s *AliasSet) Contains(alias string) bool {
	_, ok := s.m[alias]
	return ok
}

// Len returns the number of members.
func (s *AliasSet) Len() int { return len(s.m) }

// Sorted returns the members in lexicographic order.
func (s *AliasSet) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for a := range s.m {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of s.
func (s *AliasSet) Clone() *AliasSet {
	c := &AliasSet{m: make(map[string]struct{}, len(s.m))}
	for a := range s.m {
		c.m[a] = struct{}{}
	}
	return c
}
