package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-restore/restore"
)

func TestParseAppliesPartialOverDefaults(t *testing.T) {
	f, err := Parse([]byte(`{
		"name": "78rpm shellac",
		"settings": {
			"hiss_suppression": 60,
			"hum_removal": true,
			"hum_frequency": 60,
			"warmth": 25
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Name != "78rpm shellac" {
		t.Fatalf("name %q", f.Name)
	}
	s := f.Apply(restore.Defaults())
	if s.HissSuppression != 60 || !s.HumRemoval || s.HumFrequency != 60 || s.Warmth != 25 {
		t.Fatalf("applied settings %+v", s)
	}
	// Untouched fields keep their defaults.
	if s.StereoWidth != 100 || s.LimiterThreshold != -1 {
		t.Fatalf("defaults disturbed: %+v", s)
	}
}

func TestParseClampsOutOfRangeValues(t *testing.T) {
	f, err := Parse([]byte(`{"settings": {
		"hiss_suppression": 400,
		"hum_frequency": 10,
		"master_gain": 40,
		"stereo_width": -5
	}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := f.Apply(restore.Defaults())
	if s.HissSuppression != 100 {
		t.Fatalf("hiss not clamped: %g", s.HissSuppression)
	}
	if s.HumFrequency != 45 {
		t.Fatalf("hum frequency not clamped: %g", s.HumFrequency)
	}
	if s.MasterGain != 6 {
		t.Fatalf("master gain not clamped: %g", s.MasterGain)
	}
	if s.StereoWidth != 0 {
		t.Fatalf("width not clamped: %g", s.StereoWidth)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"settings": `)); err == nil {
		t.Fatal("want error for malformed JSON")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets", "cleanup.json")

	fb := restore.FallbackProfile()
	if err := SaveJSON(path, &File{Name: "cleanup", Settings: fb}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := restore.Merge(restore.Defaults(), &fb)
	if s != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", s, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "absent.json")); !os.IsNotExist(err) {
		t.Fatalf("want not-exist error, got %v", err)
	}
}
