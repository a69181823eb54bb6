package pmsbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modernpms/pmsbook/pkg/pmsbook/report"
)

func TestParseSampleScope(t *testing.T) {
	tests := []struct {
		in      string
		want    report.SampleScope
		wantErr bool
	}{
		{"", report.SampleNone, false},
		{"none", report.SampleNone, false},
		{"first", report.SampleFirst, false},
		{"all", report.SampleAll, false},
		{"both", report.SampleNone, true},
	}
	for _, tt := range tests {
		got, err := ParseSampleScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSampleScope(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSampleScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultOptionsPasswordEnv(t *testing.T) {
	t.Setenv("PMS_SHEET_PASSWORD", "s3cret")
	if got := DefaultOptions().Password; got != "s3cret" {
		t.Errorf("password = %q, want env override", got)
	}

	t.Setenv("PMS_SHEET_PASSWORD", "")
	if got := DefaultOptions().Password; got != DefaultPassword {
		t.Errorf("password = %q, want default", got)
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmsbook.yaml")
	config := `spokes: 5
sample: all
macros: true
output: out/book.xlsm
password: override
`
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	if err := LoadOptions(path, &opts); err != nil {
		t.Fatal(err)
	}
	if opts.SpokeCount != 5 || opts.Sample != report.SampleAll || !opts.IncludeMacros {
		t.Errorf("loaded options = %+v", opts)
	}
	if opts.OutputPath != "out/book.xlsm" || opts.Password != "override" {
		t.Errorf("loaded options = %+v", opts)
	}
	// Fields absent from the file keep their defaults.
	if opts.CacheDir != ".pmsbook-cache" {
		t.Errorf("cache dir = %q", opts.CacheDir)
	}
}

func TestLoadOptionsBadScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmsbook.yaml")
	if err := os.WriteFile(path, []byte("sample: everything\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	if err := LoadOptions(path, &opts); err == nil {
		t.Fatal("expected scope parse error")
	}
}
