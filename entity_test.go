package geodict

import (
	"errors"

	"github.com/golang/geo/s2"
	. "gopkg.in/check.v1"
)

type EntitySuite struct{}

var _ = Suite(&EntitySuite{})

func mustYAML(c *C, src string) *Node {
	n, err := ParseYAML([]byte(src))
	c.Assert(err, IsNil)
	return n
}

const citiesYAML = `
cities:
  US:
    LosAngeles:
      name_en: Los Angeles
      name_zh: 洛杉矶
      aliases: ["LA", "Los Angeles", "洛杉矶"]
      lat: 34.0522
      lng: -118.2437
    NewYork:
      aliases: [nyc]
  JP:
    Tokyo: ~
  XX: ~
`

func (s *EntitySuite) TestBuildScopedTable(c *C) {
	t, err := BuildTable(Cities, mustYAML(c, citiesYAML), "cities.yaml")
	c.Assert(err, IsNil)
	c.Assert(t.Frozen(), Equals, true)
	c.Assert(t.Len(), Equals, 3)
	c.Assert(t.Scopes(), DeepEquals, []string{"JP", "US"})

	la := t.ByRef("US.LosAngeles")
	c.Assert(la, NotNil)
	c.Assert(la.Scope, Equals, "US")
	c.Assert(la.Key, Equals, "LosAngeles")
	c.Assert(la.Name("en"), Equals, "Los Angeles")
	c.Assert(la.Name("zh"), Equals, "洛杉矶")
	c.Assert(la.Aliases.Sorted(), DeepEquals, []string{"la", "los angeles", "losangeles", "洛杉矶"})
	c.Assert(la.Location, NotNil)
	c.Assert(la.Location.Latitude, Equals, 34.0522)

	ny := t.ByRef("US.NewYork")
	c.Assert(ny.Name("en"), Equals, "NewYork")
	c.Assert(ny.Name("zh"), Equals, "NewYork")
	c.Assert(ny.Aliases.Sorted(), DeepEquals, []string{"newyork", "nyc"})
	c.Assert(ny.Location, IsNil)

	tokyo := t.ByRef("JP.Tokyo")
	c.Assert(tokyo, NotNil)
	c.Assert(tokyo.Aliases.Sorted(), DeepEquals, []string{"tokyo"})

	var refs []string
	for _, e := range t.Entities() {
		refs = append(refs, e.Ref())
	}
	c.Assert(refs, DeepEquals, []string{"JP.Tokyo", "US.LosAngeles", "US.NewYork"})
}

func (s *EntitySuite) TestBuildFlatTable(c *C) {
	doc := mustYAML(c, `
lines:
  IPLC:
    display_en: IPLC
    display_zh: 专线
    aliases: [专线, "private line"]
  BGP: {}
`)
	t, err := BuildTable(Lines, doc, "lines.yaml")
	c.Assert(err, IsNil)
	c.Assert(t.Len(), Equals, 2)

	iplc := t.ByRef("IPLC")
	c.Assert(iplc.Scope, Equals, "")
	c.Assert(iplc.Name("zh"), Equals, "专线")
	c.Assert(iplc.Aliases.Sorted(), DeepEquals, []string{"iplc", "private line", "privateline", "专线"})
	c.Assert(t.ByRef("BGP").Name("en"), Equals, "BGP")
}

func (s *EntitySuite) TestNonLatinKeyIsNormalized(c *C) {
	doc := mustYAML(c, `
cities:
  RU:
    Москва:
      name_en: Moscow
  GR:
    ΑΘΗΝΑ: {}
`)
	t, err := BuildTable(Cities, doc, "cities.yaml")
	c.Assert(err, IsNil)

	msk := t.ByRef("RU.Москва")
	c.Assert(msk, NotNil)
	c.Assert(msk.Aliases.Sorted(), DeepEquals, []string{"москва"})
	c.Assert(msk.Aliases.Contains(NormalizeCase("Москва")), Equals, true)
	c.Assert(t.ByRef("GR.ΑΘΗΝΑ").Aliases.Sorted(), DeepEquals, []string{NormalizeCase("ΑΘΗΝΑ")})

	d := NewDictionary(t, BuildIndex(t), "1.0.0")
	c.Assert(d.Lookup("Москва"), DeepEquals, []string{"RU.Москва"})
	c.Assert(d.Lookup("  МОСКВА "), DeepEquals, []string{"RU.Москва"})
}

func (s *EntitySuite) TestBuildTableMalformed(c *C) {
	tests := []struct {
		cat *Category
		src string
	}{
		{Lines, "tags: {}"},
		{Lines, "- a\n- b"},
		{Lines, "lines: [a, b]"},
		{Lines, "lines:\n  IPLC: just a string"},
		{Lines, "lines:\n  IPLC:\n    aliases: [[nested]]"},
		{Lines, "lines:\n  IPLC:\n    aliases: notalist"},
		{Lines, "lines:\n  IPLC:\n    display_en: [a]"},
		{Lines, "lines:\n  '  ': {}"},
		{Cities, "cities:\n  US: [a]"},
		{Cities, "cities:\n  US:\n    LA:\n      lat: 34"},
		{Cities, "cities:\n  US:\n    LA:\n      lat: 91\n      lng: 0"},
		{Cities, "cities:\n  US:\n    LA:\n      lat: north\n      lng: 0"},
	}
	for _, tt := range tests {
		_, err := BuildTable(tt.cat, mustYAML(c, tt.src), "src.yaml")
		c.Check(errors.Is(err, ErrMalformedSource), Equals, true, Commentf("source %q: err = %v", tt.src, err))
	}

	_, err := BuildTable(Lines, absentNode, "empty.yaml")
	c.Assert(errors.Is(err, ErrMalformedSource), Equals, true)
}

func (s *EntitySuite) TestPutRejectsDuplicates(c *C) {
	t := NewEntityTable(Tags)
	c.Assert(t.Put(&Entity{Key: "Netflix", Aliases: NewAliasSet()}), IsNil)
	err := t.Put(&Entity{Key: "Netflix", Aliases: NewAliasSet()})
	c.Assert(errors.Is(err, ErrMalformedSource), Equals, true)
}

func (s *EntitySuite) TestPutOnFrozenTablePanics(c *C) {
	t := NewEntityTable(Tags).Freeze()
	c.Assert(func() { t.Put(&Entity{Key: "x", Aliases: NewAliasSet()}) }, PanicMatches, ".*frozen.*")
}

func (s *EntitySuite) TestLocationTokens(c *C) {
	loc, err := parseLocation("34.0522", "-118.2437")
	c.Assert(err, IsNil)

	tok := loc.CellToken()
	c.Assert(tok, Not(Equals), "")
	c.Assert(s2.CellIDFromToken(tok).Level(), Equals, s2CellLevel)
	c.Assert(s2.CellIDFromToken(tok).Contains(s2.CellIDFromLatLng(s2.LatLngFromDegrees(34.0522, -118.2437))), Equals, true)

	gh := loc.Geohash()
	c.Assert(len(gh), Equals, geohashPrecision)
	c.Assert(gh[:3], Equals, "9q5")
}
