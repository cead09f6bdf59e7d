package streamx

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/tuannm99/dataext/pkg/util"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec bundles the text encoding and gzip level used by its methods.
// The zero Codec decodes UTF-8 and compresses with gzip.NoCompression; use
// Default or NewCodec instead.
type Codec struct {
	// Encoding decodes text; nil means UTF-8.
	Encoding encoding.Encoding
	// Level is a klauspost/compress gzip level.
	Level int
}

// Default decodes UTF-8 and compresses at gzip.DefaultCompression.
var Default = Codec{Encoding: unicode.UTF8, Level: gzip.DefaultCompression}

// NewCodec resolves charset (empty means UTF-8) and validates level.
func NewCodec(charset string, level int) (Codec, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return Codec{}, err
	}
	if level < gzip.StatelessCompression || level > gzip.BestCompression {
		return Codec{}, fmt.Errorf("%w: %d", ErrBadLevel, level)
	}
	return Codec{Encoding: enc, Level: level}, nil
}

// LookupEncoding maps an IANA or WHATWG charset name to an encoding.
func LookupEncoding(charset string) (encoding.Encoding, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	return enc, nil
}

func (c Codec) withEncoding(enc encoding.Encoding) Codec {
	if enc != nil {
		c.Encoding = enc
	}
	return c
}

// ReadAllText reads r fully and decodes it. Bytes that are not valid in the
// codec's encoding fail with ErrDecode instead of being replaced.
func (c Codec) ReadAllText(r io.Reader) (string, error) {
	b, err := ToByteArray(r)
	if err != nil {
		return "", err
	}

	enc := c.Encoding
	if enc == nil || enc == unicode.UTF8 {
		b = bytes.TrimPrefix(b, utf8BOM)
		if !utf8.Valid(b) {
			return "", ErrDecode
		}
		return string(b), nil
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	// Decoders substitute U+FFFD for invalid input. A real U+FFFD in the
	// source survives a re-encode, a substituted one does not.
	if bytes.ContainsRune(out, utf8.RuneError) {
		back, err := enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, b) {
			return "", ErrDecode
		}
	}
	return string(out), nil
}

func (c Codec) ToBase64String(r io.Reader) (string, error) { return ToBase64String(r) }

// CompressGzip streams r through a gzip writer. Read errors from r are
// returned as-is.
func (c Codec) CompressGzip(r io.Reader) ([]byte, error) {
	if isNilReader(r) {
		return nil, ErrNilReader
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrBadLevel, c.Level)
	}
	n, err := io.Copy(zw, r)
	if err != nil {
		util.CloseFunc(zw, "gzip writer")
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	slog.Debug("streamx: gzip", "in", n, "out", buf.Len(), "level", c.Level)
	return buf.Bytes(), nil
}

func (c Codec) CompressGzipBytes(b []byte) ([]byte, error) {
	return c.CompressGzip(bytes.NewReader(b))
}

// DecompressGzip reads r fully, then inflates it. Read errors from r are
// returned as-is; anything wrong with the container is ErrBadFormat.
func (c Codec) DecompressGzip(r io.Reader) ([]byte, error) {
	b, err := ToByteArray(r)
	if err != nil {
		return nil, err
	}
	return c.DecompressGzipBytes(b)
}

func (c Codec) DecompressGzipBytes(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	defer util.CloseFunc(zr, "gzip reader")

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	if out == nil {
		out = []byte{}
	}

	slog.Debug("streamx: gunzip", "in", len(b), "out", len(out))
	return out, nil
}
