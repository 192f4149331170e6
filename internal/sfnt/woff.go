package sfnt

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	woffSignature  uint32 = 0x774F4646 // "wOFF"
	woffHeaderSize        = 44
	woffEntrySize         = 20
)

// WOFF encodes the font as WOFF 1.0. Each table is zlib-compressed unless
// compression would not make it smaller.
func (f *Font) WOFF() ([]byte, error) {
	f.sort()

	n := len(f.Tables)
	var (
		header = make([]byte, woffHeaderSize+woffEntrySize*n)
		body   bytes.Buffer
		offset = len(header)
	)

	for i, t := range f.Tables {
		compressed, err := deflate(t.Data)
		if err != nil {
			return nil, fmt.Errorf("compressing '%s': %w", t.Tag, err)
		}
		stored := t.Data
		if len(compressed) < len(t.Data) {
			stored = compressed
		}

		entry := header[woffHeaderSize+woffEntrySize*i:]
		copy(entry[:4], t.Tag)
		binary.BigEndian.PutUint32(entry[4:], uint32(offset))
		binary.BigEndian.PutUint32(entry[8:], uint32(len(stored)))
		binary.BigEndian.PutUint32(entry[12:], uint32(len(t.Data)))
		binary.BigEndian.PutUint32(entry[16:], tableChecksum(t))

		body.Write(stored)
		for p := len(stored); p%4 != 0; p++ {
			body.WriteByte(0)
		}
		offset += pad4(len(stored))
	}

	binary.BigEndian.PutUint32(header[0:], woffSignature)
	binary.BigEndian.PutUint32(header[4:], f.Flavor)
	binary.BigEndian.PutUint32(header[8:], uint32(len(header)+body.Len()))
	binary.BigEndian.PutUint16(header[12:], uint16(n))
	binary.BigEndian.PutUint32(header[16:], uint32(f.sfntSize()))
	binary.BigEndian.PutUint16(header[20:], 1)
	// minor version, metadata and private data blocks are all zero.

	return append(header, body.Bytes()...), nil
}

// ParseWOFF reads a WOFF 1.0 file.
func ParseWOFF(data []byte) (*Font, error) {
	if len(data) < woffHeaderSize || binary.BigEndian.Uint32(data) != woffSignature {
		return nil, ErrNotFont
	}
	n := int(binary.BigEndian.Uint16(data[12:]))
	if len(data) < woffHeaderSize+woffEntrySize*n {
		return nil, fmt.Errorf("%w: truncated table directory", ErrNotFont)
	}

	f := &Font{Flavor: binary.BigEndian.Uint32(data[4:])}
	for i := 0; i < n; i++ {
		entry := data[woffHeaderSize+woffEntrySize*i:]
		var (
			tag        = string(entry[:4])
			offset     = binary.BigEndian.Uint32(entry[4:])
			compLength = binary.BigEndian.Uint32(entry[8:])
			origLength = binary.BigEndian.Uint32(entry[12:])
		)
		end := uint64(offset) + uint64(compLength)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table '%s' runs past the end of the file", ErrNotFont, tag)
		}
		stored := data[offset:end]
		if compLength == origLength {
			f.Tables = append(f.Tables, Table{Tag: tag, Data: stored})
			continue
		}
		r, err := zlib.NewReader(bytes.NewReader(stored))
		if err != nil {
			return nil, fmt.Errorf("table '%s': %w", tag, err)
		}
		table, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("table '%s': %w", tag, err)
		}
		if len(table) != int(origLength) {
			return nil, fmt.Errorf("table '%s' is %d bytes, expected %d", tag, len(table), origLength)
		}
		f.Tables = append(f.Tables, Table{Tag: tag, Data: table})
	}
	f.sort()
	return f, nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tableChecksum is the checksum a table has in the plain sfnt encoding,
// where head's checkSumAdjustment is zeroed.
func tableChecksum(t Table) uint32 {
	if t.Tag == "head" && len(t.Data) >= 12 {
		head := append([]byte(nil), t.Data...)
		binary.BigEndian.PutUint32(head[8:], 0)
		return checksum(head)
	}
	return checksum(t.Data)
}
