package geodict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// ReferenceTimeout bounds each reference download.
const ReferenceTimeout = 30 * time.Second

// maxReferenceSize caps a single reference document.
const maxReferenceSize = 32 << 20

// ReferenceLocations lists, per reference document, the URLs or file paths
// to try in order.
type ReferenceLocations struct {
	CLDREnglish []string `yaml:"cldr_en"`
	CLDRChinese []string `yaml:"cldr_zh"`
	ISO3166     []string `yaml:"iso3166"`
}

// DefaultReferenceLocations returns the public CLDR and ISO 3166 sources.
func DefaultReferenceLocations() ReferenceLocations {
	const cldr = "https://raw.githubusercontent.com/unicode-org/cldr-json/%s/cldr-json/cldr-localenames-full/main/%s/territories.json"
	return ReferenceLocations{
		CLDREnglish: []string{fmt.Sprintf(cldr, "main", "en"), fmt.Sprintf(cldr, "master", "en")},
		CLDRChinese: []string{fmt.Sprintf(cldr, "main", "zh"), fmt.Sprintf(cldr, "master", "zh")},
		ISO3166: []string{
			"https://raw.githubusercontent.com/lukes/ISO-3166-Countries-with-Regional-Codes/master/all/all.json",
		},
	}
}

// CountryReference is the external country data the countries category is
// built from. Maps are keyed by ISO 3166 alpha-2 code.
type CountryReference struct {
	English  map[string]string // CLDR English territory names
	Chinese  map[string]string // CLDR Chinese territory names
	Alpha3   map[string]string
	ISONames map[string]string
}

// Codes returns the union of ISO alpha-2 codes and two-letter CLDR
// territory codes, sorted.
func (r *CountryReference) Codes() []string {
	seen := make(map[string]bool)
	for cc := range r.Alpha3 {
		seen[cc] = true
	}
	for _, names := range []map[string]string{r.English, r.Chinese} {
		for cc := range names {
			if isCountryCode(cc) {
				seen[cc] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for cc := range seen {
		out = append(out, cc)
	}
	sort.Strings(out)
	return out
}

type cldrTerritories struct {
	Main map[string]struct {
		LocaleDisplayNames struct {
			Territories map[string]string `json:"territories"`
		} `json:"localeDisplayNames"`
	} `json:"main"`
}

type isoCountry struct {
	Alpha2 string `json:"alpha-2"`
	Alpha3 string `json:"alpha-3"`
	Name   string `json:"name"`
}

// LoadCountryReference fetches the CLDR English and Chinese territory
// names and the ISO 3166 list. For each document the locations are tried
// in order until one can be read and decoded. client may be nil.
func LoadCountryReference(ctx context.Context, client *http.Client, locs ReferenceLocations) (*CountryReference, error) {
	if client == nil {
		client = &http.Client{Timeout: ReferenceTimeout}
	}
	en, err := loadTerritories(ctx, client, locs.CLDREnglish, "en")
	if err != nil {
		return nil, fmt.Errorf("CLDR en: %w", err)
	}
	zh, err := loadTerritories(ctx, client, locs.CLDRChinese, "zh")
	if err != nil {
		return nil, fmt.Errorf("CLDR zh: %w", err)
	}

	var iso []isoCountry
	if err := fetchJSON(ctx, client, locs.ISO3166, &iso); err != nil {
		return nil, fmt.Errorf("ISO 3166: %w", err)
	}
	ref := &CountryReference{
		English:  en,
		Chinese:  zh,
		Alpha3:   make(map[string]string, len(iso)),
		ISONames: make(map[string]string, len(iso)),
	}
	for _, c := range iso {
		cc := toUpper(c.Alpha2)
		if cc == "" {
			continue
		}
		ref.Alpha3[cc] = c.Alpha3
		if c.Name != "" {
			ref.ISONames[cc] = c.Name
		}
	}
	return ref, nil
}

func loadTerritories(ctx context.Context, client *http.Client, locations []string, locale string) (map[string]string, error) {
	var doc cldrTerritories
	if err := fetchJSON(ctx, client, locations, &doc); err != nil {
		return nil, err
	}
	m, ok := doc.Main[locale]
	if !ok {
		return nil, fmt.Errorf("no %q locale in territory data", locale)
	}
	return m.LocaleDisplayNames.Territories, nil
}

// fetchJSON decodes the first location that can be read and parsed into v.
func fetchJSON(ctx context.Context, client *http.Client, locations []string, v any) error {
	if len(locations) == 0 {
		return errors.New("no locations configured")
	}
	var errs []error
	for _, loc := range locations {
		data, err := readLocation(ctx, client, loc)
		if err == nil {
			err = json.Unmarshal(data, v)
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", loc, err))
	}
	return errors.Join(errs...)
}

func readLocation(ctx context.Context, client *http.Client, loc string) ([]byte, error) {
	if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
		return os.ReadFile(loc)
	}
	ctx, cancel := context.WithTimeout(ctx, ReferenceTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP GET: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxReferenceSize))
}

func isCountryCode(cc string) bool {
	return len(cc) == 2 && 'A' <= cc[0] && cc[0] <= 'Z' && 'A' <= cc[1] && cc[1] <= 'Z'
}

// flagEmoji returns the regional-indicator flag for a two-letter code, or
// "" for anything else.
func flagEmoji(cc string) string {
	if !isCountryCode(cc) {
		return ""
	}
	const offset = 0x1F1E6 - 'A'
	return string([]rune{rune(cc[0]) + offset, rune(cc[1]) + offset})
}

// CountriesTable builds the countries entity table from reference data.
// The English name falls back to the ISO name, then to "". Aliases are the
// lowercased code and alpha-3 code, the English name with its compacted
// form, and the Chinese name verbatim. Display names are not re-added as
// aliases after patching.
func CountriesTable(ref *CountryReference) *EntityTable {
	t := NewEntityTable(Countries)
	for _, cc := range ref.Codes() {
		nameEn := ref.English[cc]
		if nameEn == "" {
			nameEn = ref.ISONames[cc]
		}
		nameZh := ref.Chinese[cc]

		aliases := NewAliasSet(cc, ref.Alpha3[cc], nameEn)
		aliases.AddVerbatim(nameZh)

		// Codes are unique, so Put cannot fail.
		_ = t.Put(&Entity{
			Key:     cc,
			Names:   map[string]string{"en": nameEn, "zh": nameZh},
			Attrs:   map[string]string{"cc": cc, "flag": flagEmoji(cc)},
			Aliases: aliases,
		})
	}
	return t.Freeze()
}
