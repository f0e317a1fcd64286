// Package registry implements component E of the font toolkit: a
// concurrent FontKey → FontRecord store with an optional LRU byte budget
// over decoded buffers and an optional on-disk spill path for evicted
// entries.
package registry

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/textkit/fonttk/container"
	"github.com/textkit/fonttk/fontfile"
	"github.com/textkit/fonttk/key"
	"github.com/textkit/fonttk/query"
	"github.com/textkit/fonttk/text"
)

var fontExtensions = map[string]bool{
	".ttf": true, ".otf": true, ".ttc": true, ".otc": true, ".woff": true, ".woff2": true,
}

// entry is one registered font. The LRU list and byte accounting are
// protected by mu; the record itself is read-only once constructed, so
// concurrent readers need no lock once they hold a *fontfile.Record.
type entry struct {
	key      key.FontKey
	record   *fontfile.Record // nil when spilled to disk or loaded from ReadData
	path     string           // source path, retained even after spilling
	size     int
	lruElem  *list.Element
	diskPath string            // "" if never spilled
	names    map[string]string // populated by ReadData for a placeholder entry with no record
}

// Registry is safe for concurrent use by multiple goroutines. A single
// sync.RWMutex guards the index and LRU list; this is the first-iteration
// global-lock design the spec explicitly allows (spec.md §9) rather than
// per-bucket sharding.
type Registry struct {
	mu      sync.RWMutex
	records map[key.FontKey]*entry
	lru     *list.List // front = most recently used

	limitBytes int64
	usedBytes  int64
	cachePath  string
}

// New returns an empty registry with no byte budget (buffers are retained
// indefinitely) and no cache spill path.
func New() *Registry {
	return &Registry{
		records: make(map[key.FontKey]*entry),
		lru:     list.New(),
	}
}

// SetConfig installs an LRU byte budget (0 disables it) and an optional
// disk spill directory for evicted buffers.
func (r *Registry) SetConfig(limitKB int, cachePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limitBytes = int64(limitKB) * 1024
	r.cachePath = cachePath
	r.evictLocked()
}

// AddFontFromBuffer decodes data (any supported container) and inserts
// every logical font it contains, returning their keys in container
// order. Unlike AddSearchPath, decode/parse failures are surfaced to the
// caller.
func (r *Registry) AddFontFromBuffer(data []byte) ([]key.FontKey, error) {
	decoded, err := container.Decode(data)
	if err != nil {
		return nil, err
	}
	keys := make([]key.FontKey, 0, decoded.NumFonts)
	for i := 0; i < decoded.NumFonts; i++ {
		rec, err := fontfile.Open(decoded.Data, "", i)
		if err != nil {
			return nil, err
		}
		r.insert(rec)
		keys = append(keys, rec.Key())
	}
	return keys, nil
}

// addFontFromFile mirrors AddFontFromBuffer but records the source path on
// each resulting record and is used by AddSearchPath's per-file ingestion.
func (r *Registry) addFontFromFile(path string, data []byte) ([]key.FontKey, error) {
	decoded, err := container.Decode(data)
	if err != nil {
		return nil, err
	}
	keys := make([]key.FontKey, 0, decoded.NumFonts)
	for i := 0; i < decoded.NumFonts; i++ {
		rec, err := fontfile.Open(decoded.Data, path, i)
		if err != nil {
			return nil, err
		}
		r.insert(rec)
		keys = append(keys, rec.Key())
	}
	return keys, nil
}

func (r *Registry) insert(rec *fontfile.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := rec.Key()
	size := len(rec.Buffer())
	if old, ok := r.records[k]; ok {
		r.usedBytes -= int64(old.size)
		if old.lruElem != nil {
			r.lru.Remove(old.lruElem)
		}
		r.removeSpillFile(old)
	}

	e := &entry{key: k, record: rec, path: rec.Path(), size: size}
	e.lruElem = r.lru.PushFront(e)
	r.records[k] = e
	r.usedBytes += int64(size)
	r.evictLocked()
}

// AddSearchPath recursively walks path, filtering by font extension, and
// inserts every file that decodes successfully. Per-file failures (bad
// container, unreadable file, unsupported format) are skipped silently so
// one corrupt font never aborts the whole walk.
func (r *Registry) AddSearchPath(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !fontExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		_, _ = r.addFontFromFile(p, data)
		return nil
	})
}

// touch moves e to the front of the LRU list (most recently used). Callers
// must hold r.mu.
func (r *Registry) touchLocked(e *entry) {
	if e.lruElem != nil {
		r.lru.MoveToFront(e.lruElem)
	}
}

// evictLocked evicts least-recently-used entries until usedBytes fits the
// configured budget. Callers must hold r.mu.
func (r *Registry) evictLocked() {
	if r.limitBytes <= 0 {
		return
	}
	for r.usedBytes > r.limitBytes {
		back := r.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry)
		if e.record == nil {
			// already spilled; nothing further to evict from memory.
			r.lru.Remove(back)
			e.lruElem = nil
			continue
		}
		r.spillLocked(e)
	}
}

// spillLocked writes e's buffer to the cache path (if configured) and
// drops the in-memory record, keeping only its FontInfo for fonts_info and
// a path to reload from on the next query.
func (r *Registry) spillLocked(e *entry) {
	r.usedBytes -= int64(e.size)
	if r.cachePath != "" {
		digest := keyDigest(e.key)
		p := filepath.Join(r.cachePath, digest+".bin")
		if err := os.WriteFile(p, e.record.Buffer(), 0o644); err == nil {
			e.diskPath = p
		}
	}
	e.record = nil
	r.lru.Remove(e.lruElem)
	e.lruElem = nil
}

func (r *Registry) removeSpillFile(e *entry) {
	if e.diskPath != "" {
		_ = os.Remove(e.diskPath)
	}
}

func keyDigest(k key.FontKey) string {
	sum := sha256.Sum256([]byte(k.Digest()))
	return hex.EncodeToString(sum[:])
}

// reloadLocked reconstructs e.record from its spill file if one exists, or
// else from its source path on disk (no cache path configured, but the
// font was ingested via AddSearchPath so the original file is still the
// source of truth — spec.md §8: "if no cache path, a subsequent query for
// the first key reloads from source-of-truth only if the registry still
// has a path, else NotFound"). Callers must hold r.mu for writing.
func (r *Registry) reloadLocked(e *entry) bool {
	if e.record != nil {
		return true
	}
	source := e.diskPath
	if source == "" {
		source = e.path
	}
	if source == "" {
		return false
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return false
	}
	decoded, err := container.Decode(data)
	if err != nil {
		return false
	}
	rec, err := fontfile.Open(decoded.Data, e.path, 0)
	if err != nil {
		return false
	}
	e.record = rec
	e.size = len(data)
	r.usedBytes += int64(e.size)
	// Evict other entries before e joins the LRU list, so a reload that
	// overshoots the budget never spills the entry it is about to return.
	r.evictLocked()
	e.lruElem = r.lru.PushFront(e)
	return true
}

// Query runs the staged resolver (§4.F) over every registered font. A
// field left unset on q is not filtered on at all, rather than matched
// against some default (see key.Query). ok is false if zero or more than
// one font survives the pipeline.
func (r *Registry) Query(q key.Query) (*fontfile.Record, bool) {
	if q.Family == "" {
		return nil, false
	}
	return r.resolve(q, false)
}

// ExactMatch bypasses every relaxation stage: k's family, weight, italic
// and stretch must match exactly, and a non-empty variation list on k must
// match a font's list as a multiset. An empty variation list on k places
// no constraint on a font's variations.
func (r *Registry) ExactMatch(k key.FontKey) (*fontfile.Record, bool) {
	if k.Family == "" {
		return nil, false
	}
	return r.resolve(k.AsQuery(), true)
}

func (r *Registry) resolve(q key.Query, exact bool) (*fontfile.Record, bool) {
	r.mu.RLock()
	candidates := make([]query.Candidate, 0, len(r.records))
	for fk, e := range r.records {
		names := []string{fk.Family}
		if e.record != nil {
			names = e.record.FamilyNames()
		}
		candidates = append(candidates, query.Candidate{Key: fk, FamilyNames: names, Ref: fk})
	}
	r.mu.RUnlock()

	var winner query.Candidate
	var ok bool
	if exact {
		winner, ok = query.ExactMatch(candidates, q)
	} else {
		winner, ok = query.Resolve(candidates, q)
	}
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	e, present := r.records[winner.Key]
	if !present {
		r.mu.Unlock()
		return nil, false
	}
	if !r.reloadLocked(e) {
		r.mu.Unlock()
		return nil, false
	}
	r.touchLocked(e)
	rec := e.record
	r.mu.Unlock()
	return rec, true
}

// Remove unlinks key from the index. Any FontRecord handle already held by
// a caller remains valid until that caller releases it (Go's GC keeps the
// bytes alive via the reference, matching the "last handle drop frees the
// bytes" discipline in spec.md §5).
func (r *Registry) Remove(k key.FontKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.records[k]
	if !ok {
		return
	}
	delete(r.records, k)
	if e.lruElem != nil {
		r.lru.Remove(e.lruElem)
	}
	if e.record != nil {
		r.usedBytes -= int64(e.size)
	}
	r.removeSpillFile(e)
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// BufferSize returns the total size in bytes of buffers currently resident
// in memory (spilled entries do not count).
func (r *Registry) BufferSize() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usedBytes
}

// FontInfo is the metadata write_data/fonts_info persist and report,
// independent of the decoded buffer.
type FontInfo struct {
	Family     string
	Names      map[string]string // language tag (best-effort) -> family name
	Weight     int
	Italic     bool
	Stretch    int
	Path       string
	Variations []key.Variation
}

func infoOf(k key.FontKey, e *entry) FontInfo {
	info := FontInfo{
		Family:     k.Family,
		Weight:     int(k.Weight),
		Italic:     k.Italic,
		Stretch:    int(k.Stretch),
		Path:       e.path,
		Variations: append([]key.Variation(nil), k.Variations...),
	}
	switch {
	case e.record != nil:
		info.Names = e.record.LocalizedFamilyNames()
	case e.names != nil:
		info.Names = e.names
	}
	return info
}

// FontsInfo returns metadata for every registered font, in unspecified
// order. Names is only populated for entries currently resident in memory
// or loaded via ReadData; a spilled entry reports no Names (its other
// fields come from its key) until its next successful Query reloads it.
func (r *Registry) FontsInfo() []FontInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FontInfo, 0, len(r.records))
	for fk, e := range r.records {
		out = append(out, infoOf(fk, e))
	}
	return out
}

// QueryFontInfo runs only the family stage of the staged filter pipeline
// (§4.F stage 1) and returns every surviving candidate's info, matching
// spec.md §4.E's query_font_info → Option<list<FontInfo>> (the set of
// family-matched fonts, not Query's uniquely-resolved single font).
func (r *Registry) QueryFontInfo(q key.Query) ([]FontInfo, bool) {
	r.mu.RLock()
	candidates := make([]query.Candidate, 0, len(r.records))
	for fk, e := range r.records {
		names := []string{fk.Family}
		if e.record != nil {
			names = e.record.FamilyNames()
		}
		candidates = append(candidates, query.Candidate{Key: fk, FamilyNames: names})
	}
	r.mu.RUnlock()

	survivors := query.FilterFamily(candidates, q.Family)
	if len(survivors) == 0 {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FontInfo, 0, len(survivors))
	for _, c := range survivors {
		e, present := r.records[c.Key]
		if !present {
			continue
		}
		out = append(out, infoOf(c.Key, e))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Measure resolves q via the staged query pipeline (§4.F) and measures
// text against the winning font, implementing spec.md §4.E's measure
// operation. ok is false if no font resolves.
func (r *Registry) Measure(q key.Query, s string) (*text.Metrics, bool) {
	rec, ok := r.Query(q)
	if !ok {
		return nil, false
	}
	m, err := text.Measure(rec, s)
	if err != nil {
		return nil, false
	}
	return m, true
}
