// Package archive reads ARXML documents from plain files and compressed containers.
package archive

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// DefaultMaxDocumentSize bounds a single decompressed document.
const DefaultMaxDocumentSize int64 = 256 << 20

// Encoding identifies how a source file is stored on disk.
type Encoding string

const (
	EncodingIdentity Encoding = "identity"
	EncodingGzip     Encoding = "gzip"
	EncodingZstd     Encoding = "zstd"
	EncodingZip      Encoding = "zip"
)

// Document is one decompressed ARXML document.
type Document struct {
	// Name is the file path, or "archive.zip!member" for archive members.
	Name     string
	Encoding Encoding
	Data     []byte
	// Digest is the hex BLAKE2b-256 of Data.
	Digest string
}

// NewDocument wraps in-memory data.
func NewDocument(name string, data []byte) Document {
	return Document{Name: name, Encoding: EncodingIdentity, Data: data, Digest: Digest(data)}
}

// Digest fingerprints decompressed document content.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EncodingOf picks the encoding from the file name.
func EncodingOf(path string) (Encoding, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".arxml"), strings.HasSuffix(lower, ".xml"):
		return EncodingIdentity, true
	case strings.HasSuffix(lower, ".arxml.gz"), strings.HasSuffix(lower, ".xml.gz"):
		return EncodingGzip, true
	case strings.HasSuffix(lower, ".arxml.zst"), strings.HasSuffix(lower, ".xml.zst"):
		return EncodingZstd, true
	case strings.HasSuffix(lower, ".zip"):
		return EncodingZip, true
	}
	return "", false
}

// Supported reports whether path names a readable source.
func Supported(path string) bool {
	_, ok := EncodingOf(path)
	return ok
}

// Reader opens sources with a size limit per document.
type Reader struct {
	maxSize int64
}

// NewReader creates a Reader. A non-positive maxSize selects DefaultMaxDocumentSize.
func NewReader(maxSize int64) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}
	return &Reader{maxSize: maxSize}
}

// Open reads every document stored in path. Zip archives yield their ARXML
// members in name order; other encodings yield exactly one document.
func (r *Reader) Open(path string) ([]Document, error) {
	enc, ok := EncodingOf(path)
	if !ok {
		return nil, fmt.Errorf("unsupported source %s", path)
	}
	if enc == EncodingZip {
		return r.openZip(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	switch enc {
	case EncodingGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	case EncodingZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder for %s: %w", path, err)
		}
		defer dec.Close()
		src = dec
	}

	data, err := r.readAll(path, src)
	if err != nil {
		return nil, err
	}
	return []Document{{Name: path, Encoding: enc, Data: data, Digest: Digest(data)}}, nil
}

func (r *Reader) openZip(path string) ([]Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", path, err)
	}
	defer zr.Close()

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if enc, ok := EncodingOf(f.Name); !ok || enc != EncodingIdentity {
			continue
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		name := path + "!" + filepath.ToSlash(f.Name)
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		data, err := r.readAll(name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Name: name, Encoding: EncodingZip, Data: data, Digest: Digest(data)})
	}
	return docs, nil
}

// readAll reads src with the document size limit.
func (r *Reader) readAll(name string, src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("document %s exceeds max size of %d bytes", name, r.maxSize)
	}
	return data, nil
}

// Expand replaces directories in paths with the supported files below them,
// in lexical order. Explicit file paths are kept as given.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	return out, nil
}
