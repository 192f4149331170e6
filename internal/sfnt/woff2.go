package sfnt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

const (
	woff2Signature  uint32 = 0x774F4632 // "wOF2"
	woff2HeaderSize        = 48
)

// knownTags are the tags which a WOFF2 table directory can name with a
// single byte.
var knownTags = [...]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const arbitraryTag = 0x3f

// nullTransform is the transform version which, for glyf and loca, means
// the table is stored as is. For every other table it is version 0.
func nullTransform(tag string) byte {
	if tag == "glyf" || tag == "loca" {
		return 3
	}
	return 0
}

// WOFF2 encodes the font as WOFF 2.0. Tables are stored untransformed, in
// one brotli stream.
func (f *Font) WOFF2() ([]byte, error) {
	f.sort()

	var (
		dir    bytes.Buffer
		stream bytes.Buffer
	)
	for _, t := range f.Tables {
		flags := byte(arbitraryTag)
		for i, known := range knownTags {
			if known == t.Tag {
				flags = byte(i)
				break
			}
		}
		flags |= nullTransform(t.Tag) << 6
		dir.WriteByte(flags)
		if flags&arbitraryTag == arbitraryTag {
			dir.WriteString(t.Tag)
		}
		dir.Write(base128(uint32(len(t.Data))))
		stream.Write(t.Data)
	}

	var compressed bytes.Buffer
	w := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := w.Write(stream.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	length := woff2HeaderSize + dir.Len() + compressed.Len()
	padded := pad4(length)

	out := make([]byte, woff2HeaderSize, padded)
	binary.BigEndian.PutUint32(out[0:], woff2Signature)
	binary.BigEndian.PutUint32(out[4:], f.Flavor)
	binary.BigEndian.PutUint32(out[8:], uint32(padded))
	binary.BigEndian.PutUint16(out[12:], uint16(len(f.Tables)))
	binary.BigEndian.PutUint32(out[16:], uint32(f.sfntSize()))
	binary.BigEndian.PutUint32(out[20:], uint32(compressed.Len()))
	binary.BigEndian.PutUint16(out[24:], 1)
	// minor version, metadata and private data blocks are all zero.

	out = append(out, dir.Bytes()...)
	out = append(out, compressed.Bytes()...)
	for len(out) < padded {
		out = append(out, 0)
	}
	return out, nil
}

// ParseWOFF2 reads a WOFF 2.0 file whose tables are untransformed, as
// written by [Font.WOFF2].
func ParseWOFF2(data []byte) (*Font, error) {
	if len(data) < woff2HeaderSize || binary.BigEndian.Uint32(data) != woff2Signature {
		return nil, ErrNotFont
	}
	var (
		f              = &Font{Flavor: binary.BigEndian.Uint32(data[4:])}
		n              = int(binary.BigEndian.Uint16(data[12:]))
		compressedSize = int(binary.BigEndian.Uint32(data[20:]))
		r              = bytes.NewReader(data[woff2HeaderSize:])
		lengths        = make([]uint32, n)
	)
	for i := 0; i < n; i++ {
		flags, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated table directory", ErrNotFont)
		}
		var tag string
		if idx := flags & arbitraryTag; idx == arbitraryTag {
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, fmt.Errorf("%w: truncated table directory", ErrNotFont)
			}
			tag = string(b[:])
		} else if int(idx) < len(knownTags) {
			tag = knownTags[idx]
		} else {
			return nil, fmt.Errorf("%w: bad tag index %d", ErrNotFont, idx)
		}
		if flags>>6 != nullTransform(tag) {
			return nil, fmt.Errorf("table '%s' is transformed", tag)
		}
		if lengths[i], err = readBase128(r); err != nil {
			return nil, fmt.Errorf("table '%s': %w", tag, err)
		}
		f.Tables = append(f.Tables, Table{Tag: tag})
	}

	start := len(data) - r.Len()
	if start+compressedSize > len(data) {
		return nil, fmt.Errorf("%w: truncated font data", ErrNotFont)
	}
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data[start : start+compressedSize])))
	if err != nil {
		return nil, err
	}
	for i := range f.Tables {
		if int(lengths[i]) > len(stream) {
			return nil, fmt.Errorf("table '%s' runs past the end of the font data", f.Tables[i].Tag)
		}
		f.Tables[i].Data, stream = stream[:lengths[i]], stream[lengths[i]:]
	}
	f.sort()
	return f, nil
}

// base128 encodes v as a UIntBase128: big-endian groups of seven bits, with
// the high bit set on every byte but the last.
func base128(v uint32) []byte {
	var out []byte
	for {
		out = append([]byte{byte(v & 0x7f)}, out...)
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := 0; i < len(out)-1; i++ {
		out[i] |= 0x80
	}
	return out
}

func readBase128(r io.ByteReader) (uint32, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == 0 && b == 0x80 {
			return 0, errors.New("leading zero in UIntBase128")
		}
		if v&0xFE000000 != 0 {
			return 0, errors.New("UIntBase128 overflow")
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, errors.New("UIntBase128 longer than 5 bytes")
}
