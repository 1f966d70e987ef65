package geodict

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"
)

const (
	cldrEnFixture = `{"main": {"en": {"localeDisplayNames": {"territories": {
		"US": "United States", "GB": "United Kingdom", "001": "World", "XK": "Kosovo"}}}}}`
	cldrZhFixture = `{"main": {"zh": {"localeDisplayNames": {"territories": {
		"US": "美国", "GB": "英国"}}}}}`
	isoFixture = `[
		{"name": "United States of America", "alpha-2": "US", "alpha-3": "USA"},
		{"name": "United Kingdom of Great Britain and Northern Ireland", "alpha-2": "GB", "alpha-3": "GBR"},
		{"name": "Åland Islands", "alpha-2": "AX", "alpha-3": "ALA"}
	]`
)

type ReferenceSuite struct {
	srv *httptest.Server
}

var _ = Suite(&ReferenceSuite{})

func (s *ReferenceSuite) SetUpSuite(c *C) {
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/en/territories.json", serve(cldrEnFixture))
	mux.HandleFunc("/zh/territories.json", serve(cldrZhFixture))
	mux.HandleFunc("/iso.json", serve(isoFixture))
	mux.HandleFunc("/garbage.json", serve("<html>"))
	s.srv = httptest.NewServer(mux)
}

func (s *ReferenceSuite) TearDownSuite(c *C) {
	s.srv.Close()
}

func (s *ReferenceSuite) locations() ReferenceLocations {
	return ReferenceLocations{
		CLDREnglish: []string{s.srv.URL + "/missing.json", s.srv.URL + "/en/territories.json"},
		CLDRChinese: []string{s.srv.URL + "/garbage.json", s.srv.URL + "/zh/territories.json"},
		ISO3166:     []string{s.srv.URL + "/iso.json"},
	}
}

func (s *ReferenceSuite) TestLoadWithFallback(c *C) {
	ref, err := LoadCountryReference(context.Background(), s.srv.Client(), s.locations())
	c.Assert(err, IsNil)
	c.Assert(ref.English["US"], Equals, "United States")
	c.Assert(ref.Chinese["GB"], Equals, "英国")
	c.Assert(ref.Alpha3["AX"], Equals, "ALA")
	c.Assert(ref.Codes(), DeepEquals, []string{"AX", "GB", "US", "XK"})
}

func (s *ReferenceSuite) TestLoadFromFiles(c *C) {
	dir := c.MkDir()
	locs := ReferenceLocations{
		CLDREnglish: []string{filepath.Join(dir, "nope.json"), writeFixture(c, dir, "en.json", cldrEnFixture)},
		CLDRChinese: []string{writeFixture(c, dir, "zh.json", cldrZhFixture)},
		ISO3166:     []string{writeFixture(c, dir, "iso.json", isoFixture)},
	}
	ref, err := LoadCountryReference(context.Background(), nil, locs)
	c.Assert(err, IsNil)
	c.Assert(ref.ISONames["GB"], Equals, "United Kingdom of Great Britain and Northern Ireland")
}

func (s *ReferenceSuite) TestLoadFailsWhenEveryLocationFails(c *C) {
	locs := s.locations()
	locs.ISO3166 = []string{s.srv.URL + "/missing.json", s.srv.URL + "/garbage.json"}
	_, err := LoadCountryReference(context.Background(), s.srv.Client(), locs)
	c.Assert(err, ErrorMatches, "(?s)ISO 3166: .*status 404.*")

	locs.ISO3166 = nil
	_, err = LoadCountryReference(context.Background(), s.srv.Client(), locs)
	c.Assert(err, ErrorMatches, "ISO 3166: no locations configured")
}

func (s *ReferenceSuite) TestLoadHonorsCancellation(c *C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadCountryReference(ctx, s.srv.Client(), s.locations())
	c.Assert(err, NotNil)
}

func (s *ReferenceSuite) TestCountriesTable(c *C) {
	ref, err := LoadCountryReference(context.Background(), s.srv.Client(), s.locations())
	c.Assert(err, IsNil)
	t := CountriesTable(ref)
	c.Assert(t.Frozen(), Equals, true)
	c.Assert(t.Len(), Equals, 4)

	us := t.ByRef("US")
	c.Assert(us.Name("en"), Equals, "United States")
	c.Assert(us.Name("zh"), Equals, "美国")
	c.Assert(us.Attrs, DeepEquals, map[string]string{"cc": "US", "flag": "🇺🇸"})
	c.Assert(us.Aliases.Sorted(), DeepEquals, []string{"united states", "unitedstates", "us", "usa", "美国"})

	ax := t.ByRef("AX")
	c.Assert(ax.Name("en"), Equals, "Åland Islands")
	c.Assert(ax.Name("zh"), Equals, "")
	c.Assert(ax.Aliases.Sorted(), DeepEquals, []string{"ala", "ax", "landislands", "åland islands"})

	xk := t.ByRef("XK")
	c.Assert(xk.Aliases.Sorted(), DeepEquals, []string{"kosovo", "xk"})
}

func (s *ReferenceSuite) TestFlagEmoji(c *C) {
	c.Assert(flagEmoji("GB"), Equals, "🇬🇧")
	c.Assert(flagEmoji("gb"), Equals, "")
	c.Assert(flagEmoji("001"), Equals, "")
	c.Assert(flagEmoji(""), Equals, "")
}

func writeFixture(c *C, dir, name, content string) string {
	path := filepath.Join(dir, name)
	c.Assert(os.WriteFile(path, []byte(content), 0644), IsNil)
	return path
}
