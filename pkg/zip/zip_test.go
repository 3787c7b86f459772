package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "face.png", MIME: "image/png", Data: []byte("aaa")},
		{Filename: "back.png", MIME: "image/png", Data: []byte("bbb")},
		{Filename: "face.png", MIME: "image/png", Data: []byte("ccc")},
	})
	if len(archive) == 0 {
		t.Fatal("archive is empty")
	}

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(reader.File))
	}
	names := map[string][]byte{}
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		names[f.Name] = data
	}
	if string(names["face.png"]) != "aaa" {
		t.Fatalf("face.png content = %q", names["face.png"])
	}
	if string(names["1-face.png"]) != "ccc" {
		t.Fatalf("duplicate entry should be suffixed, got names %v", names)
	}
}
