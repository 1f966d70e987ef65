package geodict

import (
	. "gopkg.in/check.v1"
)

type IndexSuite struct{}

var _ = Suite(&IndexSuite{})

func tableOf(c *C, cat *Category, src string) *EntityTable {
	t, err := BuildTable(cat, mustYAML(c, src), cat.Name+".yaml")
	c.Assert(err, IsNil)
	return t
}

func (s *IndexSuite) TestIndexCoversEveryAlias(c *C) {
	t := tableOf(c, Cities, citiesYAML)
	x := BuildIndex(t)

	for _, e := range t.Entities() {
		for _, a := range e.Aliases.Sorted() {
			c.Assert(x.Refs(a), DeepEquals, []string{e.Ref()}, Commentf("alias %q", a))
		}
	}
	c.Assert(x.Conflicts(), HasLen, 0)
	c.Assert(x.Refs("unknown"), IsNil)
}

func (s *IndexSuite) TestIndexKeepsConflicts(c *C) {
	t := tableOf(c, Cities, `
cities:
  US:
    SanJose:
      aliases: [sj, san jose]
  CR:
    SanJose:
      aliases: [san jose]
  CN:
    Shenzhen:
      aliases: [sz, sj]
  BR:
    SaoJose:
      aliases: [sj]
`)
	x := BuildIndex(t)

	c.Assert(x.Refs("san jose"), DeepEquals, []string{"CR.SanJose", "US.SanJose"})
	c.Assert(x.Refs("sj"), DeepEquals, []string{"BR.SaoJose", "CN.Shenzhen", "US.SanJose"})

	conflicts := x.Conflicts()
	c.Assert(conflicts, HasLen, 3)
	c.Assert(conflicts[0], DeepEquals, Conflict{Alias: "sj", Refs: []string{"BR.SaoJose", "CN.Shenzhen", "US.SanJose"}})
	c.Assert(conflicts[1].Alias, Equals, "san jose")
	c.Assert(conflicts[2].Alias, Equals, "sanjose")

	c.Assert(x.TopConflicts(1), DeepEquals, conflicts[:1])
	c.Assert(x.TopConflicts(10), HasLen, 3)
}

func (s *IndexSuite) TestAliasEqualToAnotherKeyIsAConflict(c *C) {
	t := tableOf(c, Lines, `
lines:
  CN2:
    aliases: [gia]
  GIA: {}
`)
	x := BuildIndex(t)
	c.Assert(x.Refs("gia"), DeepEquals, []string{"CN2", "GIA"})
}

func (s *IndexSuite) TestSetReplacesBucket(c *C) {
	x := NewReverseIndex()
	x.Add("uk", "UA")
	x.Add("uk", "GB")
	prev := x.Set("uk", "GB")
	c.Assert(prev, DeepEquals, []string{"GB", "UA"})
	c.Assert(x.Refs("uk"), DeepEquals, []string{"GB"})
	c.Assert(x.Set("new", "XX"), IsNil)
	c.Assert(x.Aliases(), DeepEquals, []string{"new", "uk"})
	c.Assert(x.Len(), Equals, 2)
}

func (s *IndexSuite) TestNearMisses(c *C) {
	x := NewReverseIndex()
	x.Add("frankfurt", "DE.Frankfurt")
	x.Add("frankfort", "US.Frankfort")
	x.Add("frankfurtam", "DE.Frankfurt")
	x.Add("fra", "DE.Frankfurt")
	x.Add("frb", "US.Frankfort")
	x.Add("seattle", "US.Seattle")

	c.Assert(x.NearMisses(0), HasLen, 0)

	got := x.NearMisses(1)
	c.Assert(got, DeepEquals, []NearMiss{{A: "frankfort", B: "frankfurt", Distance: 1}})

	// Aliases of the same entity never pair up.
	for _, nm := range x.NearMisses(3) {
		c.Assert(nm.A == "frankfurt" && nm.B == "frankfurtam", Equals, false)
	}
}
