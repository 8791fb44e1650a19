package stocklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, "list.csv", strings.Join([]string{
		"Sector,Ticker,Exchange",
		"Banking,VCB,HOSE",
		"Banking,TCB,HOSE",
		"Index,VNINDEX,INDEX",
		"Index,VNMIDCAP,INDEX",
	}, "\n"))

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(list.Symbols) != 4 {
		t.Fatalf("Load() got %d symbols, want 4", len(list.Symbols))
	}

	sym, ok := list.Find("vcb")
	if !ok {
		t.Fatal("Find(vcb) not found")
	}
	if sym.Sector != "Banking" || sym.Exchange != "HOSE" {
		t.Errorf("Find(vcb) = %+v", sym)
	}
}

func TestLoadCSVMissingSector(t *testing.T) {
	path := writeTemp(t, "list.csv", strings.Join([]string{
		"Sector,Ticker,Exchange",
		"Banking,VCB,HOSE",
		",TCB,HOSE",
	}, "\n"))

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a row with a missing sector")
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeTemp(t, "list.csv", "Ticker,Exchange\nVCB,HOSE\n")

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a csv without a Sector column")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "list.yaml", `
symbols:
  - ticker: vcb
    sector: Banking
    exchange: hose
  - ticker: VNMIDCAP
    sector: Index
    exchange: INDEX
    provider: sheets
`)

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(list.Symbols) != 2 {
		t.Fatalf("Load() got %d symbols, want 2", len(list.Symbols))
	}

	if list.Symbols[0].Ticker != "VCB" || list.Symbols[0].Exchange != "HOSE" {
		t.Errorf("Load() did not normalize case: %+v", list.Symbols[0])
	}
	if list.Symbols[1].Provider != "sheets" {
		t.Errorf("Load() Provider = %q, want sheets", list.Symbols[1].Provider)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Load() succeeded on a missing file")
	}
}

func TestSectors(t *testing.T) {
	path := writeTemp(t, "list.csv", strings.Join([]string{
		"Sector,Ticker,Exchange",
		"Tech,FPT,HOSE",
		"Banking,VCB,HOSE",
		"Banking,TCB,HOSE",
	}, "\n"))

	list, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	sectors := list.Sectors()
	if len(sectors) != 2 || sectors[0] != "Banking" || sectors[1] != "Tech" {
		t.Errorf("Sectors() = %v, want [Banking Tech]", sectors)
	}

	banking := list.BySector("Banking")
	if len(banking) != 2 || banking[0] != "TCB" {
		t.Errorf("BySector(Banking) = %v", banking)
	}
	if all := list.BySector("All"); len(all) != 3 {
		t.Errorf("BySector(All) = %v, want 3 tickers", all)
	}
}
