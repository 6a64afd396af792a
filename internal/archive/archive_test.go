package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

const sample = `<AUTOSAR xmlns="http://autosar.org/3.1.4"><TOP-LEVEL-PACKAGES/></AUTOSAR>`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func zipped(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEncodingOf(t *testing.T) {
	tests := []struct {
		path string
		want Encoding
		ok   bool
	}{
		{"a.arxml", EncodingIdentity, true},
		{"A.ARXML", EncodingIdentity, true},
		{"a.xml", EncodingIdentity, true},
		{"a.arxml.gz", EncodingGzip, true},
		{"a.arxml.zst", EncodingZstd, true},
		{"bundle.zip", EncodingZip, true},
		{"a.txt", "", false},
		{"a.gz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := EncodingOf(tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("EncodingOf(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestReader_Open(t *testing.T) {
	dir := t.TempDir()
	want := Digest([]byte(sample))

	tests := []struct {
		name     string
		file     string
		content  []byte
		encoding Encoding
	}{
		{"plain", "plain.arxml", []byte(sample), EncodingIdentity},
		{"gzip", "packed.arxml.gz", gzipped(t, []byte(sample)), EncodingGzip},
		{"zstd", "packed.arxml.zst", zstded(t, []byte(sample)), EncodingZstd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			docs, err := NewReader(0).Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if len(docs) != 1 {
				t.Fatalf("len(docs) = %d, want 1", len(docs))
			}
			doc := docs[0]
			if string(doc.Data) != sample {
				t.Errorf("Data = %q, want %q", doc.Data, sample)
			}
			if doc.Encoding != tt.encoding {
				t.Errorf("Encoding = %q, want %q", doc.Encoding, tt.encoding)
			}
			if doc.Digest != want {
				t.Errorf("Digest = %q, want %q", doc.Digest, want)
			}
			if doc.Name != path {
				t.Errorf("Name = %q, want %q", doc.Name, path)
			}
		})
	}
}

func TestReader_OpenZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	writeFile(t, path, zipped(t, map[string]string{
		"b/second.arxml": sample,
		"a/first.arxml":  sample,
		"README.txt":     "not a model",
	}))

	docs, err := NewReader(0).Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	if docs[0].Name != path+"!a/first.arxml" || docs[1].Name != path+"!b/second.arxml" {
		t.Errorf("names = %q, %q", docs[0].Name, docs[1].Name)
	}
	for _, d := range docs {
		if d.Encoding != EncodingZip {
			t.Errorf("Encoding = %q, want %q", d.Encoding, EncodingZip)
		}
	}
}

func TestReader_SizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.arxml.gz")
	writeFile(t, path, gzipped(t, []byte(sample)))

	_, err := NewReader(10).Open(path)
	if err == nil {
		t.Fatal("Open() should fail for oversized document")
	}
	if !strings.Contains(err.Error(), "exceeds max size") {
		t.Errorf("error = %v, want size limit error", err)
	}
}

func TestReader_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.arxml.gz")
	writeFile(t, corrupt, []byte("definitely not gzip"))

	tests := []struct {
		name string
		path string
	}{
		{"unsupported extension", filepath.Join(dir, "model.txt")},
		{"missing file", filepath.Join(dir, "missing.arxml")},
		{"corrupt gzip", corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReader(0).Open(tt.path); err == nil {
				t.Errorf("Open(%q) should fail", tt.path)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "b.arxml"), []byte(sample))
	writeFile(t, filepath.Join(dir, "notes.md"), []byte("skip"))
	writeFile(t, filepath.Join(sub, "a.arxml.gz"), gzipped(t, []byte(sample)))
	explicit := filepath.Join(dir, "notes.md")

	got, err := Expand([]string{dir, explicit})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "b.arxml"),
		filepath.Join(sub, "a.arxml.gz"),
		explicit,
	}
	if len(got) != len(want) {
		t.Fatalf("Expand() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expand()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("a"))
	if len(a) != 64 {
		t.Errorf("len(Digest) = %d, want 64", len(a))
	}
	if a == Digest([]byte("b")) {
		t.Error("different content should have different digests")
	}
	if a != NewDocument("x", []byte("a")).Digest {
		t.Error("NewDocument should fingerprint its data")
	}
}
