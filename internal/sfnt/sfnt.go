// Package sfnt reads TrueType and OpenType fonts and writes them back out as
// plain sfnt, WOFF and WOFF2 files. Table contents are carried over byte for
// byte; only the container changes.
package sfnt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	// FlavorTrueType is the sfnt version of fonts with glyf outlines.
	FlavorTrueType uint32 = 0x00010000
	// FlavorCFF is the sfnt version ("OTTO") of fonts with CFF outlines.
	FlavorCFF uint32 = 0x4F54544F

	flavorTrue       uint32 = 0x74727565 // "true", old Apple TrueType
	flavorCollection uint32 = 0x74746366 // "ttcf"

	checksumMagic uint32 = 0xB1B0AFBA
)

var (
	ErrNotFont    = errors.New("not a font")
	ErrCollection = errors.New("font collections are not supported")
)

type Font struct {
	Flavor uint32

	// Tables are kept sorted by tag.
	Tables []Table
}

type Table struct {
	Tag  string
	Data []byte
}

// Table returns the table with the given tag, or nil.
func (f *Font) Table(tag string) *Table {
	for i := range f.Tables {
		if f.Tables[i].Tag == tag {
			return &f.Tables[i]
		}
	}
	return nil
}

// Parse reads an sfnt file (.ttf or .otf).
func Parse(data []byte) (*Font, error) {
	if len(data) < 12 {
		return nil, ErrNotFont
	}
	flavor := binary.BigEndian.Uint32(data)
	switch flavor {
	case FlavorTrueType, FlavorCFF, flavorTrue:
	case flavorCollection:
		return nil, ErrCollection
	default:
		return nil, ErrNotFont
	}

	n := int(binary.BigEndian.Uint16(data[4:]))
	if n == 0 {
		return nil, fmt.Errorf("%w: no tables", ErrNotFont)
	}
	if len(data) < 12+16*n {
		return nil, fmt.Errorf("%w: truncated table directory", ErrNotFont)
	}

	f := &Font{Flavor: flavor, Tables: make([]Table, 0, n)}
	for i := 0; i < n; i++ {
		rec := data[12+16*i:]
		offset := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		end := uint64(offset) + uint64(length)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table '%s' runs past the end of the file", ErrNotFont, rec[:4])
		}
		f.Tables = append(f.Tables, Table{
			Tag:  string(rec[:4]),
			Data: data[offset:end],
		})
	}
	f.sort()
	return f, nil
}

func (f *Font) sort() {
	sort.Slice(f.Tables, func(i, j int) bool { return f.Tables[i].Tag < f.Tables[j].Tag })
}

// SFNT encodes the font as a plain sfnt file with a rebuilt table directory,
// recomputed checksums and a recomputed head.checkSumAdjustment.
func (f *Font) SFNT() []byte {
	f.sort()

	n := len(f.Tables)
	size := 12 + 16*n
	for _, t := range f.Tables {
		size += pad4(len(t.Data))
	}
	out := make([]byte, size)

	binary.BigEndian.PutUint32(out, f.Flavor)
	binary.BigEndian.PutUint16(out[4:], uint16(n))
	searchRange, entrySelector, rangeShift := searchParams(n)
	binary.BigEndian.PutUint16(out[6:], searchRange)
	binary.BigEndian.PutUint16(out[8:], entrySelector)
	binary.BigEndian.PutUint16(out[10:], rangeShift)

	var headOffset = -1
	offset := 12 + 16*n
	for i, t := range f.Tables {
		data := out[offset : offset+len(t.Data)]
		copy(data, t.Data)
		if t.Tag == "head" && len(data) >= 12 {
			headOffset = offset
			binary.BigEndian.PutUint32(data[8:], 0)
		}

		rec := out[12+16*i:]
		copy(rec[:4], t.Tag)
		binary.BigEndian.PutUint32(rec[4:], checksum(data))
		binary.BigEndian.PutUint32(rec[8:], uint32(offset))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(t.Data)))
		offset += pad4(len(t.Data))
	}

	if headOffset >= 0 {
		binary.BigEndian.PutUint32(out[headOffset+8:], checksumMagic-checksum(out))
	}
	return out
}

// Checksum computes the sfnt checksum of data: the sum of its big-endian
// uint32 words, with the last word zero-padded.
func Checksum(data []byte) uint32 { return checksum(data) }

func checksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.BigEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var last [4]byte
		copy(last[:], data)
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func searchParams(n int) (searchRange, entrySelector, rangeShift uint16) {
	var pow, log uint16 = 1, 0
	for int(pow)*2 <= n {
		pow *= 2
		log++
	}
	searchRange = pow * 16
	return searchRange, log, uint16(n*16) - searchRange
}

func pad4(n int) int { return (n + 3) &^ 3 }

// sfntSize is the size of the plain sfnt encoding of the font.
func (f *Font) sfntSize() int {
	size := 12 + 16*len(f.Tables)
	for _, t := range f.Tables {
		size += pad4(len(t.Data))
	}
	return size
}
