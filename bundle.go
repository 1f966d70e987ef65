package geodict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how a bundle payload is compressed.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression maps a flag value to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// bundleMagic opens every bundle file.
var bundleMagic = [4]byte{'G', 'D', 'B', '1'}

// bundleHeaderSize is magic + compression tag + uncompressed size.
const bundleHeaderSize = 4 + 1 + 8

// maxBundleSize bounds the uncompressed size read from a header.
const maxBundleSize = 1 << 30

var errIncompressible = errors.New("data is incompressible")

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("geodict: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("geodict: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("geodict: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("geodict: zstd decoder initialization failed: " + err.Error())
	}
}

// BundleEntity is the bundled form of one entity.
type BundleEntity struct {
	Ref     string            `cbor:"ref"`
	Names   map[string]string `cbor:"names"`
	Attrs   map[string]string `cbor:"attrs,omitempty"`
	Aliases []string          `cbor:"aliases"`
}

// bundlePayload is the CBOR document inside a bundle.
type bundlePayload struct {
	Category string              `cbor:"category"`
	Version  string              `cbor:"version"`
	Shape    string              `cbor:"shape"`
	Entities []BundleEntity      `cbor:"entities"`
	Index    map[string][]string `cbor:"index"`
}

func newBundlePayload(table *EntityTable, x *ReverseIndex, version string) bundlePayload {
	p := bundlePayload{
		Category: table.Category.Name,
		Version:  version,
		Shape:    table.Category.Shape.String(),
		Index:    make(map[string][]string, x.Len()),
	}
	for _, e := range table.Entities() {
		be := BundleEntity{Ref: e.Ref(), Names: e.Names, Aliases: e.Aliases.Sorted()}
		if len(e.Attrs) > 0 {
			be.Attrs = e.Attrs
		}
		p.Entities = append(p.Entities, be)
	}
	for _, alias := range x.Aliases() {
		p.Index[alias] = x.Refs(alias)
	}
	return p
}

// EncodeBundle renders table and its final index as a compressed bundle.
// Output is deterministic for identical input. LZ4 falls back to no
// compression when the payload does not shrink.
func EncodeBundle(table *EntityTable, x *ReverseIndex, version string, comp Compression) ([]byte, error) {
	raw, err := cborEnc.Marshal(newBundlePayload(table, x, version))
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}

	var body []byte
	switch comp {
	case CompressionNone:
		body = raw
	case CompressionZstd:
		body = zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)))
	case CompressionLZ4:
		body, err = compressLZ4(raw)
		if errors.Is(err, errIncompressible) {
			comp, body = CompressionNone, raw
		} else if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression %s", comp)
	}

	out := make([]byte, bundleHeaderSize, bundleHeaderSize+len(body))
	copy(out, bundleMagic[:])
	out[4] = byte(comp)
	binary.BigEndian.PutUint64(out[5:bundleHeaderSize], uint64(len(raw)))
	return append(out, body...), nil
}

// DecodeBundle parses bundle bytes into a Dictionary.
func DecodeBundle(data []byte) (*Dictionary, error) {
	if len(data) < bundleHeaderSize || !bytes.Equal(data[:4], bundleMagic[:]) {
		return nil, errors.New("not a dictionary bundle")
	}
	comp := Compression(data[4])
	size := binary.BigEndian.Uint64(data[5:bundleHeaderSize])
	if size > maxBundleSize {
		return nil, fmt.Errorf("bundle too large: %d bytes", size)
	}
	body := data[bundleHeaderSize:]

	var raw []byte
	var err error
	switch comp {
	case CompressionNone:
		raw = body
	case CompressionZstd:
		raw, err = zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	case CompressionLZ4:
		raw, err = decompressLZ4(body, int(size))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression %s", comp)
	}
	if uint64(len(raw)) != size {
		return nil, fmt.Errorf("bundle size mismatch: got %d bytes, expected %d", len(raw), size)
	}

	var p bundlePayload
	if err := cborDec.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return newDictionary(p), nil
}

// LoadBundle reads and decodes the bundle at path.
func LoadBundle(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	d, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return dst[:n], nil
}
