// Package geodict builds canonical dictionaries of named entities
// (countries, cities, line types, tags) and reverse alias indexes that map
// normalized free text back to canonical references.
//
// A build reads a hand-authored source document per category, applies an
// optional patch, inverts every entity's alias set into a ReverseIndex and
// writes two deterministic JSON artifacts plus a shared version record:
//
//	b, err := geodict.NewBuilder(geodict.WithSourcesDir("dict/sources"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := b.Run(ctx, "cities")
//	refs := res.Dictionary.Lookup("Los Angeles") // ["US.LosAngeles"]
//
// Conflicts, overwrites and near-miss aliases are reported in the BuildResult;
// they never abort a build.
package geodict
