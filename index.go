package geodict

import (
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// ReverseIndex maps a normalized alias to the set of canonical references
// claiming it.
type ReverseIndex struct {
	buckets map[string]map[string]struct{}
}

// Conflict is an alias claimed by more than one reference.
type Conflict struct {
	Alias string
	Refs  []string // sorted
}

// NewReverseIndex returns an empty index.
func NewReverseIndex() *ReverseIndex {
	return &ReverseIndex{buckets: make(map[string]map[string]struct{})}
}

// BuildIndex inverts table: every alias of every entity points back to the
// entity's reference. Buckets with several references are kept whole; the
// index never picks a winner.
func BuildIndex(table *EntityTable) *ReverseIndex {
	x := NewReverseIndex()
	for _, e := range table.Entities() {
		ref := e.Ref()
		for _, alias := range e.Aliases.Sorted() {
			x.Add(alias, ref)
		}
	}
	return x
}

// Add appends ref to the bucket of alias.
func (x *ReverseIndex) Add(alias, ref string) {
	b, ok := x.buckets[alias]
	if !ok {
		b = make(map[string]struct{}, 1)
		x.buckets[alias] = b
	}
	b[ref] = struct{}{}
}

// Set replaces the bucket of alias with the single reference ref and
// returns the previous bucket, sorted, or nil.
func (x *ReverseIndex) Set(alias, ref string) []string {
	prev := x.Refs(alias)
	x.buckets[alias] = map[string]struct{}{ref: {}}
	return prev
}

// Refs returns the sorted references claiming alias, or nil.
func (x *ReverseIndex) Refs(alias string) []string {
	b, ok := x.buckets[alias]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(b))
	for ref := range b {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of aliases.
func (x *ReverseIndex) Len() int { return len(x.buckets) }

// Aliases returns every alias in lexicographic order.
func (x *ReverseIndex) Aliases() []string {
	out := make([]string, 0, len(x.buckets))
	for a := range x.buckets {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Conflicts returns every bucket with more than one reference, largest
// first, ties broken by alias.
func (x *ReverseIndex) Conflicts() []Conflict {
	var out []Conflict
	for alias, b := range x.buckets {
		if len(b) > 1 {
			out = append(out, Conflict{Alias: alias, Refs: x.Refs(alias)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Refs) != len(out[j].Refs) {
			return len(out[i].Refs) > len(out[j].Refs)
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// TopConflicts returns at most n conflicts in Conflicts order.
func (x *ReverseIndex) TopConflicts(n int) []Conflict {
	all := x.Conflicts()
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// NearMiss is a pair of aliases of different entities that are within a
// small edit distance of each other. It often points at a typo in a source
// document.
type NearMiss struct {
	A, B     string
	Distance int
}

// nearMissMinLen skips short aliases such as codes, where small distances
// are the norm.
const nearMissMinLen = 5

// NearMisses returns alias pairs whose edit distance is between 1 and
// maxDist and whose buckets share no reference. maxDist <= 0 disables the
// scan.
func (x *ReverseIndex) NearMisses(maxDist int) []NearMiss {
	if maxDist <= 0 {
		return nil
	}
	type candidate struct {
		alias string
		runes int
	}
	var cands []candidate
	for _, a := range x.Aliases() {
		if n := utf8.RuneCountInString(a); n >= nearMissMinLen {
			cands = append(cands, candidate{a, n})
		}
	}

	var out []NearMiss
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			a, b := cands[i], cands[j]
			if diff := a.runes - b.runes; diff > maxDist || -diff > maxDist {
				continue
			}
			if x.shareRef(a.alias, b.alias) {
				continue
			}
			if d := levenshtein.ComputeDistance(a.alias, b.alias); d > 0 && d <= maxDist {
				out = append(out, NearMiss{A: a.alias, B: b.alias, Distance: d})
			}
		}
	}
	return out
}

func (x *ReverseIndex) shareRef(a, b string) bool {
	for ref := range x.buckets[a] {
		if _, ok := x.buckets[b][ref]; ok {
			return true
		}
	}
	return false
}
