package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/textkit/fonttk/internal/testfont"
	"github.com/textkit/fonttk/key"
)

func buildBuffer(opts testfont.Options) []byte {
	return testfont.Build(opts)
}

func TestAddFontFromBufferReturnsKey(t *testing.T) {
	r := New()
	keys, err := r.AddFontFromBuffer(buildBuffer(testfont.Default()))
	if err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	if keys[0].Family != "Test Sans" {
		t.Fatalf("Family = %q, want %q", keys[0].Family, "Test Sans")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestQueryAndExactMatchAgree(t *testing.T) {
	r := New()
	if _, err := r.AddFontFromBuffer(buildBuffer(testfont.Default())); err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}

	q := key.NewQuery("test sans")
	rec, ok := r.Query(q)
	if !ok {
		t.Fatal("expected Query to resolve the registered font")
	}
	if rec.Key().Family != "Test Sans" {
		t.Fatalf("resolved family = %q", rec.Key().Family)
	}

	exactRec, ok := r.ExactMatch(rec.Key())
	if !ok {
		t.Fatal("expected ExactMatch to find the exact registered key")
	}
	if exactRec.Key().Family != rec.Key().Family {
		t.Fatal("ExactMatch and Query disagreed on the resolved family")
	}
}

func TestQueryEmptyFamilyFails(t *testing.T) {
	r := New()
	if _, err := r.AddFontFromBuffer(buildBuffer(testfont.Default())); err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}
	if _, ok := r.Query(key.Query{}); ok {
		t.Fatal("expected Query with an empty family to fail")
	}
}

func TestRemoveUnlinksKey(t *testing.T) {
	r := New()
	keys, err := r.AddFontFromBuffer(buildBuffer(testfont.Default()))
	if err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}
	r.Remove(keys[0])
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after Remove, want 0", r.Len())
	}
	if _, ok := r.Query(key.NewQuery("test sans")); ok {
		t.Fatal("expected Query to fail after removal")
	}
}

func TestLRUSpillsOldestWhenOverBudget(t *testing.T) {
	r := New()
	tmp := t.TempDir()

	opts1 := testfont.Default()
	// A very long family name inflates the name table (and so the whole
	// buffer) well past a 1KB budget, regardless of the exact overhead of
	// the surrounding sfnt tables.
	opts1.Family = "First Font " + strings.Repeat("x", 2000)
	opts2 := testfont.Default()
	opts2.Family = "Second Font"

	buf1 := buildBuffer(opts1)
	buf2 := buildBuffer(opts2)
	if len(buf1) <= 1024 {
		t.Fatalf("test font 1 unexpectedly small: %d bytes", len(buf1))
	}

	if _, err := r.AddFontFromBuffer(buf1); err != nil {
		t.Fatalf("AddFontFromBuffer(1): %v", err)
	}

	// Installing a 1KB budget must immediately spill the over-budget first
	// font, since it alone exceeds the limit.
	r.SetConfig(1, tmp)
	if got := r.BufferSize(); got != 0 {
		t.Fatalf("BufferSize() = %d after installing the budget, want 0", got)
	}

	if _, err := r.AddFontFromBuffer(buf2); err != nil {
		t.Fatalf("AddFontFromBuffer(2): %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (both keys remain indexed even if spilled)", r.Len())
	}

	// The second font fits the budget and was never spilled.
	rec, ok := r.Query(key.NewQuery("second font"))
	if !ok {
		t.Fatal("expected Query to resolve the never-spilled second font")
	}
	if rec.Key().Family != "Second Font" {
		t.Fatalf("resolved family = %q, want %q", rec.Key().Family, "Second Font")
	}

	// Querying the spilled font should transparently reload it from disk.
	big, ok := r.Query(key.NewQuery("First Font " + strings.Repeat("x", 2000)))
	if !ok {
		t.Fatal("expected Query to reload the spilled font from its cache file")
	}
	if big.NumGlyphs() != 2 {
		t.Fatalf("reloaded font NumGlyphs() = %d, want 2", big.NumGlyphs())
	}
}

func TestAddSearchPathIngestsMatchingExtensions(t *testing.T) {
	tmp := t.TempDir()
	data := buildBuffer(testfont.Default())
	if err := os.WriteFile(filepath.Join(tmp, "a.ttf"), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "notes.txt"), []byte("not a font"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	if err := r.AddSearchPath(tmp); err != nil {
		t.Fatalf("AddSearchPath: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (only the .ttf file should be ingested)", r.Len())
	}
}

func TestWriteDataReadDataRoundTrip(t *testing.T) {
	r := New()
	opts := testfont.Default()
	opts.Family = "Roundtrip Sans"
	if _, err := r.AddFontFromBuffer(buildBuffer(opts)); err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}

	doc, err := r.WriteData()
	if err != nil {
		t.Fatalf("WriteData: %v", err)
	}

	r2 := New()
	if err := r2.ReadData(doc); err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if r2.Len() != 1 {
		t.Fatalf("Len() after ReadData = %d, want 1", r2.Len())
	}
	infos := r2.FontsInfo()
	if infos[0].Family != "Roundtrip Sans" {
		t.Fatalf("Family = %q, want %q", infos[0].Family, "Roundtrip Sans")
	}
	if infos[0].Weight != 400 || infos[0].Stretch != 5 || infos[0].Italic {
		t.Fatalf("metadata mismatch after round-trip: %+v", infos[0])
	}
}

func TestBufferSizeTracksResidentBytes(t *testing.T) {
	r := New()
	data := buildBuffer(testfont.Default())
	if _, err := r.AddFontFromBuffer(data); err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}
	if got := r.BufferSize(); got != int64(len(data)) {
		t.Fatalf("BufferSize() = %d, want %d", got, len(data))
	}
}

func TestQueryWithUnsetFieldsStaysAmbiguous(t *testing.T) {
	r := New()
	light := testfont.Default()
	light.Family = "Multi Weight"
	heavy := testfont.Default()
	heavy.Family = "Multi Weight"
	heavy.Weight = 900
	if _, err := r.AddFontFromBuffer(buildBuffer(light)); err != nil {
		t.Fatalf("AddFontFromBuffer(light): %v", err)
	}
	if _, err := r.AddFontFromBuffer(buildBuffer(heavy)); err != nil {
		t.Fatalf("AddFontFromBuffer(heavy): %v", err)
	}

	// Naming only the family, with two distinct weights registered under
	// it, must stay ambiguous rather than silently narrowing toward the
	// lightest weight (the zero-valued Weight's nearest-neighbor target).
	if _, ok := r.Query(key.NewQuery("multi weight")); ok {
		t.Fatal("expected an unset-weight query over two distinct weights to fail as ambiguous")
	}

	rec, ok := r.Query(key.NewQuery("multi weight").WithWeight(900))
	if !ok || rec.Key().Weight != 900 {
		t.Fatalf("expected the weight-qualified query to resolve to 900, got %+v ok=%v", rec, ok)
	}
}

func TestConcurrentQueriesAreSafe(t *testing.T) {
	r := New()
	if _, err := r.AddFontFromBuffer(buildBuffer(testfont.Default())); err != nil {
		t.Fatalf("AddFontFromBuffer: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Query(key.NewQuery("test sans")); !ok {
				t.Error("concurrent Query failed to resolve")
			}
		}()
	}
	wg.Wait()
}
