package registry

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/textkit/fonttk/key"
)

// tomlDoc is the on-the-wire shape for write_data/read_data: a
// self-describing, line-oriented (TOML) representation of FontInfo
// records. Unknown keys on read are ignored by BurntSushi/toml's decoder
// by default, matching spec.md §6's "unknown fields MUST be ignored" rule.
type tomlDoc struct {
	Font []tomlFontInfo `toml:"font"`
}

type tomlFontInfo struct {
	Family     string            `toml:"family"`
	Names      map[string]string `toml:"names"`
	Weight     int               `toml:"weight"`
	Italic     bool              `toml:"italic"`
	Stretch    int               `toml:"stretch"`
	Path       string            `toml:"path"`
	Variations []tomlVariation   `toml:"variations"`
}

type tomlVariation struct {
	Axis  string  `toml:"axis"`
	Value float32 `toml:"value"`
}

// WriteData serializes every registered font's metadata (not its decoded
// buffer) to a TOML document sufficient to repopulate FontsInfo.
func (r *Registry) WriteData() (string, error) {
	infos := r.FontsInfo()
	doc := tomlDoc{Font: make([]tomlFontInfo, len(infos))}
	for i, info := range infos {
		vs := make([]tomlVariation, len(info.Variations))
		for j, v := range info.Variations {
			vs[j] = tomlVariation{Axis: string(v.Axis), Value: v.Value}
		}
		doc.Font[i] = tomlFontInfo{
			Family:     info.Family,
			Names:      info.Names,
			Weight:     info.Weight,
			Italic:     info.Italic,
			Stretch:    info.Stretch,
			Path:       info.Path,
			Variations: vs,
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReadData parses a document written by WriteData and records its fonts'
// metadata as placeholder entries: spilled-to-disk style entries with no
// in-memory buffer, reloadable only if Path still points at readable bytes
// on this machine. This lets a host repopulate FontsInfo/Query without
// re-decoding every container up front.
func (r *Registry) ReadData(s string) error {
	var doc tomlDoc
	if _, err := toml.Decode(s, &doc); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fi := range doc.Font {
		if strings.TrimSpace(fi.Family) == "" {
			continue
		}
		k := key.New(fi.Family)
		k.Weight = key.Weight(fi.Weight)
		k.Italic = fi.Italic
		k.Stretch = key.Stretch(fi.Stretch)
		for _, v := range fi.Variations {
			k.Variations = append(k.Variations, key.Variation{Axis: key.Axis(v.Axis), Value: v.Value})
		}
		k = k.Normalize()

		e := &entry{key: k, path: fi.Path, diskPath: fi.Path, names: fi.Names}
		r.records[k] = e
	}
	return nil
}
