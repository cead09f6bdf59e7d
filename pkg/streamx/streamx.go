// Package streamx converts readers and byte slices into byte slices, base64,
// decoded text and gzip containers, and back.
//
// Readers passed in belong to the caller and are never closed. All results
// are fully materialized in memory.
package streamx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"reflect"

	"golang.org/x/text/encoding"
)

var (
	ErrNilReader      = errors.New("streamx: nil reader")
	ErrDecode         = errors.New("streamx: invalid byte sequence for encoding")
	ErrUnknownCharset = errors.New("streamx: unknown charset")
	ErrBadFormat      = errors.New("streamx: invalid gzip container")
	ErrBadLevel       = errors.New("streamx: invalid gzip level")
)

// ToByteArray reads r from its current position to EOF. The result is never
// nil. Read errors are returned as-is.
func ToByteArray(r io.Reader) ([]byte, error) {
	if isNilReader(r) {
		return nil, ErrNilReader
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	slog.Debug("streamx: read", "bytes", len(b))
	return b, nil
}

// isNilReader also catches typed nils such as (*bytes.Reader)(nil).
func isNilReader(r io.Reader) bool {
	if r == nil {
		return true
	}
	rv := reflect.ValueOf(r)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ToBase64String reads r fully and encodes it with the standard padded alphabet.
func ToBase64String(r io.Reader) (string, error) {
	b, err := ToByteArray(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func FromBase64String(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// ToStream wraps a copy of b in a seekable reader positioned at zero.
func ToStream(b []byte) *bytes.Reader {
	return bytes.NewReader(bytes.Clone(b))
}

// ReadAllText decodes r with enc, or UTF-8 when enc is nil.
func ReadAllText(r io.Reader, enc encoding.Encoding) (string, error) {
	return Default.withEncoding(enc).ReadAllText(r)
}

// ReadAllTextCharset decodes r with the named charset ("utf-8", "latin1",
// "windows-1252", "utf-16le", ...).
func ReadAllTextCharset(r io.Reader, charset string) (string, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return "", err
	}
	return ReadAllText(r, enc)
}

func CompressGzip(r io.Reader) ([]byte, error) { return Default.CompressGzip(r) }

func CompressGzipBytes(b []byte) ([]byte, error) { return Default.CompressGzipBytes(b) }

func DecompressGzip(r io.Reader) ([]byte, error) { return Default.DecompressGzip(r) }

func DecompressGzipBytes(b []byte) ([]byte, error) { return Default.DecompressGzipBytes(b) }
