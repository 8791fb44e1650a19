// Package stocklist loads the tracked symbol universe from CSV or YAML
// watchlist files.
package stocklist

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/tatracker/internal/contracts"
)

// List is a loaded watchlist with sector lookups.
type List struct {
	Symbols []contracts.Symbol
}

// yamlEntry mirrors one watchlist item in YAML form.
type yamlEntry struct {
	Ticker   string `yaml:"ticker"`
	Sector   string `yaml:"sector"`
	Exchange string `yaml:"exchange"`
	Provider string `yaml:"provider,omitempty"`
}

type yamlFile struct {
	Symbols []yamlEntry `yaml:"symbols"`
}

// Load reads a watchlist file, dispatching on extension. CSV is the
// default format; .yaml/.yml files use the structured form.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(f)
	default:
		return parseCSV(f)
	}
}

// parseCSV reads the Sector,Ticker,Exchange layout. The header row is
// required and column order follows it.
func parseCSV(r io.Reader) (*List, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read watchlist csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("watchlist csv has no data rows")
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"sector", "ticker", "exchange"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("watchlist csv missing %q column", required)
		}
	}

	list := &List{}
	for i, row := range rows[1:] {
		sym := contracts.Symbol{
			Sector:   field(row, cols["sector"]),
			Ticker:   strings.ToUpper(field(row, cols["ticker"])),
			Exchange: strings.ToUpper(field(row, cols["exchange"])),
		}
		if idx, ok := cols["provider"]; ok {
			sym.Provider = strings.ToLower(field(row, idx))
		}
		if err := validate(sym, i+2); err != nil {
			return nil, err
		}
		list.Symbols = append(list.Symbols, sym)
	}
	return list, nil
}

func parseYAML(r io.Reader) (*List, error) {
	var file yamlFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("read watchlist yaml: %w", err)
	}

	list := &List{}
	for i, entry := range file.Symbols {
		sym := contracts.Symbol{
			Ticker:   strings.ToUpper(strings.TrimSpace(entry.Ticker)),
			Sector:   strings.TrimSpace(entry.Sector),
			Exchange: strings.ToUpper(strings.TrimSpace(entry.Exchange)),
			Provider: strings.ToLower(strings.TrimSpace(entry.Provider)),
		}
		if err := validate(sym, i+1); err != nil {
			return nil, err
		}
		list.Symbols = append(list.Symbols, sym)
	}
	return list, nil
}

// validate rejects entries that would silently skew sector grouping.
func validate(sym contracts.Symbol, line int) error {
	if sym.Ticker == "" {
		return fmt.Errorf("watchlist entry %d: missing ticker", line)
	}
	if sym.Sector == "" {
		return fmt.Errorf("watchlist entry %d (%s): missing sector", line, sym.Ticker)
	}
	return nil
}

// Sectors returns the distinct sectors in the list, sorted.
func (l *List) Sectors() []string {
	seen := map[string]bool{}
	var out []string
	for _, sym := range l.Symbols {
		if !seen[sym.Sector] {
			seen[sym.Sector] = true
			out = append(out, sym.Sector)
		}
	}
	sort.Strings(out)
	return out
}

// BySector returns the tickers in one sector, or every ticker for the
// empty string or "All", sorted and de-duplicated.
func (l *List) BySector(sector string) []string {
	seen := map[string]bool{}
	var out []string
	for _, sym := range l.Symbols {
		if sector != "" && sector != "All" && sym.Sector != sector {
			continue
		}
		if !seen[sym.Ticker] {
			seen[sym.Ticker] = true
			out = append(out, sym.Ticker)
		}
	}
	sort.Strings(out)
	return out
}

// Find returns the symbol for a ticker.
func (l *List) Find(ticker string) (contracts.Symbol, bool) {
	ticker = strings.ToUpper(ticker)
	for _, sym := range l.Symbols {
		if sym.Ticker == ticker {
			return sym, true
		}
	}
	return contracts.Symbol{}, false
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
