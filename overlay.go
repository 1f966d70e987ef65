package geodict

import (
	"fmt"
	"sort"
	"strings"
)

// Overwrite records a code alias replacing an existing, different mapping.
type Overwrite struct {
	Alias string
	Old   string // previous reference(s), comma separated when a conflict
	New   string
}

func (o Overwrite) String() string {
	return fmt.Sprintf("%q: %s -> %s", o.Alias, o.Old, o.New)
}

// ApplyCodeAliases writes operator-authored alias -> target pairs onto x.
// Aliases are case-normalized only, never compacted. Every pair replaces
// the alias bucket unconditionally; a replaced bucket that differed from
// {target} is returned as an Overwrite. Pairs are applied in alias order.
func ApplyCodeAliases(x *ReverseIndex, codeAliases map[string]string) []Overwrite {
	aliases := make([]string, 0, len(codeAliases))
	for a := range codeAliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	var overwritten []Overwrite
	for _, raw := range aliases {
		alias := NormalizeCase(raw)
		if alias == "" {
			continue
		}
		target := codeAliases[raw]
		prev := x.Set(alias, target)
		if len(prev) > 0 && !(len(prev) == 1 && prev[0] == target) {
			overwritten = append(overwritten, Overwrite{
				Alias: alias,
				Old:   strings.Join(prev, ","),
				New:   target,
			})
		}
	}
	return overwritten
}
