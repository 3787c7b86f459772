package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Asset is one archive entry.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs the assets into an in-memory zip. Duplicate filenames
// are disambiguated with a numeric suffix so every entry survives.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(assets))
	for _, asset := range assets {
		name := asset.Filename
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%d-%s", n, name)
		}
		seen[asset.Filename]++
		w, err := zw.Create(name)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}
