// Package persistence implements the versioned, checksummed, atomically
// written on-disk index format: a fixed 32-byte header, a per-version
// body, and an 8-byte CRC32 footer. v1 and v2 payloads are encoded with
// encoding/gob in place of the original bincode wire format; v3 is an
// archived layout of parallel arrays that LoadMapped can open through
// mmap. Loading any version, v3 included, produces a record sequence
// (see Archive.Materialize).
package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/padiauj/glint/internal/glinterrors"
)

// HeaderMagic and FooterMagic are the fixed byte sequences bracketing
// every index file.
var (
	HeaderMagic = [4]byte{'G', 'L', 'N', 'T'}
	FooterMagic = [4]byte{'T', 'G', 'L', 'N'}
)

// CurrentVersion is the newest format version this build understands and
// will opportunistically upgrade older indexes to (see Store.saveV3).
// Readers accept any version <= CurrentVersion and reject anything newer.
const CurrentVersion uint32 = 3

// Flag bits carried in the header.
const (
	FlagLZ4Compressed uint32 = 1 << 0
	FlagChunked       uint32 = 1 << 1
)

const (
	headerSize = 32
	footerSize = 8
)

// Header is the fixed-size preamble of an index file.
type Header struct {
	Version     uint32
	Flags       uint32
	RecordCount uint64
}

// Encode writes h in wire format: magic, version, flags, record count,
// then 12 reserved bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], HeaderMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint64(buf[12:20], h.RecordCount)
	return buf
}

// DecodeHeader parses and validates the leading headerSize bytes of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, &glinterrors.IndexCorruptedError{Reason: "file shorter than header"}
	}
	if !bytes.Equal(buf[0:4], HeaderMagic[:]) {
		return Header{}, &glinterrors.IndexCorruptedError{Reason: "bad header magic"}
	}
	h := Header{
		Version:     binary.LittleEndian.Uint32(buf[4:8]),
		Flags:       binary.LittleEndian.Uint32(buf[8:12]),
		RecordCount: binary.LittleEndian.Uint64(buf[12:20]),
	}
	if h.Version > CurrentVersion {
		return Header{}, &glinterrors.IndexVersionMismatchError{Found: h.Version, Expected: CurrentVersion}
	}
	return h, nil
}

// EncodeFooter returns the 8-byte footer for a body whose CRC32 is crc.
func EncodeFooter(crc uint32) []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(buf[0:4], crc)
	copy(buf[4:8], FooterMagic[:])
	return buf
}

// DecodeFooter validates and returns the CRC32 stored in the trailing
// footerSize bytes of buf.
func DecodeFooter(buf []byte) (uint32, error) {
	if len(buf) < footerSize {
		return 0, &glinterrors.IndexCorruptedError{Reason: "file shorter than footer"}
	}
	tail := buf[len(buf)-footerSize:]
	if !bytes.Equal(tail[4:8], FooterMagic[:]) {
		return 0, &glinterrors.IndexCorruptedError{Reason: "bad footer magic"}
	}
	return binary.LittleEndian.Uint32(tail[0:4]), nil
}

func validateCRC(body []byte, want uint32) error {
	got := crc32Of(body)
	if got != want {
		return &glinterrors.IndexCorruptedError{Reason: fmt.Sprintf("crc mismatch: body %08x, footer %08x", got, want)}
	}
	return nil
}
