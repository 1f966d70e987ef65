package geodict

import (
	"bytes"
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"
)

type BundleSuite struct {
	table *EntityTable
	index *ReverseIndex
}

var _ = Suite(&BundleSuite{})

func (s *BundleSuite) SetUpTest(c *C) {
	s.table = tableOf(c, Cities, citiesYAML)
	s.index = BuildIndex(s.table)
}

func (s *BundleSuite) TestRoundTrip(c *C) {
	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		data, err := EncodeBundle(s.table, s.index, "1.2.3", comp)
		c.Assert(err, IsNil, Commentf("%s", comp))

		d, err := DecodeBundle(data)
		c.Assert(err, IsNil, Commentf("%s", comp))
		c.Assert(d.Category, Equals, "cities")
		c.Assert(d.Version, Equals, "1.2.3")
		c.Assert(d.Shape, Equals, "list")
		c.Assert(d.Len(), Equals, 3)
		c.Assert(d.Aliases(), Equals, s.index.Len())
		c.Assert(d.Refs(), DeepEquals, []string{"JP.Tokyo", "US.LosAngeles", "US.NewYork"})
		c.Assert(d.Lookup("LA"), DeepEquals, []string{"US.LosAngeles"})

		la, ok := d.Entity("US.LosAngeles")
		c.Assert(ok, Equals, true)
		c.Assert(la.Names["zh"], Equals, "洛杉矶")
		c.Assert(la.Aliases, DeepEquals, []string{"la", "los angeles", "losangeles", "洛杉矶"})
	}
}

func (s *BundleSuite) TestDeterministic(c *C) {
	a, err := EncodeBundle(s.table, s.index, "1.0.0", CompressionZstd)
	c.Assert(err, IsNil)
	b, err := EncodeBundle(tableOf(c, Cities, citiesYAML), BuildIndex(s.table), "1.0.0", CompressionZstd)
	c.Assert(err, IsNil)
	c.Assert(bytes.Equal(a, b), Equals, true)
}

func (s *BundleSuite) TestHeader(c *C) {
	data, err := EncodeBundle(s.table, s.index, "1.0.0", CompressionZstd)
	c.Assert(err, IsNil)
	c.Assert(string(data[:4]), Equals, "GDB1")
	c.Assert(Compression(data[4]), Equals, CompressionZstd)
}

func (s *BundleSuite) TestDecodeRejectsGarbage(c *C) {
	_, err := DecodeBundle([]byte("nope"))
	c.Assert(err, ErrorMatches, "not a dictionary bundle")

	data, err := EncodeBundle(s.table, s.index, "1.0.0", CompressionNone)
	c.Assert(err, IsNil)
	_, err = DecodeBundle(data[:len(data)-3])
	c.Assert(err, NotNil)

	bad := append([]byte(nil), data...)
	bad[4] = 9
	_, err = DecodeBundle(bad)
	c.Assert(err, ErrorMatches, "unsupported compression .*")
}

func (s *BundleSuite) TestLoadBundle(c *C) {
	data, err := EncodeBundle(s.table, s.index, "1.0.0", CompressionLZ4)
	c.Assert(err, IsNil)
	path := filepath.Join(c.MkDir(), "cities.bundle")
	c.Assert(os.WriteFile(path, data, 0644), IsNil)

	d, err := LoadBundle(path)
	c.Assert(err, IsNil)
	c.Assert(d.Lookup("nyc"), DeepEquals, []string{"US.NewYork"})

	_, err = LoadBundle(path + ".missing")
	c.Assert(err, NotNil)
}

func (s *BundleSuite) TestParseCompression(c *C) {
	for name, want := range map[string]Compression{"": CompressionZstd, "zstd": CompressionZstd, "lz4": CompressionLZ4, "none": CompressionNone} {
		got, err := ParseCompression(name)
		c.Assert(err, IsNil)
		c.Assert(got, Equals, want)
	}
	_, err := ParseCompression("gzip")
	c.Assert(err, NotNil)
}
