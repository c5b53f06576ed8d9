package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveKeepsDuplicateNames(t *testing.T) {
	data, err := Archive([]Entry{
		{Filename: "receipt.pdf", Data: []byte("one")},
		{Filename: "receipt.pdf", Data: []byte("two")},
		{Filename: "../../etc/passwd", Data: []byte("three")},
		{Filename: "", Data: []byte("four")},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	want := map[string]string{"receipt.pdf": "one", "receipt-2.pdf": "two", "passwd": "three", "file-4": "four"}
	if len(zr.File) != len(want) {
		t.Fatalf("got %d files, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if want[f.Name] != string(body) {
			t.Fatalf("%s = %q, want %q", f.Name, body, want[f.Name])
		}
	}
}
