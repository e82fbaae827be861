package persistence

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/exp/mmap"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

// Archive is the v3 body reinterpreted as parallel arrays: one is_dir
// flag per record (stored as one byte each) and two offset tables into
// contiguous, null-terminated UTF-8 blobs. It is built by parseV3 from a
// body already in memory, either by decodeV3Body or by LoadMapped; in both
// cases its slices refer to a heap copy of the file, not to a mapping.
type Archive struct {
	IsDir        []bool
	NameOffsets  []uint32
	PathOffsets  []uint32
	NamesBlob    []byte
	PathsBlob    []byte
	Meta         metaPayload
	VolumeByIdx  []types.VolumeId
	FileIDByIdx  []types.FileId
	ParentByIdx  []int64 // -1 means no parent
}

// encodeV3Body is not used by Save directly (Save always emits v2 via
// encodeV2Body) but is exercised by saveV3, the opportunistic v1/v2 -> v3
// upgrade performed after a successful legacy load.
func encodeV3Body(meta metaPayload, records []types.FileRecord) ([]byte, error) {
	metaRaw, err := gobEncode(meta)
	if err != nil {
		return nil, err
	}

	var namesBlob, pathsBlob bytes.Buffer
	nameOffsets := make([]uint32, len(records))
	pathOffsets := make([]uint32, len(records))
	isDir := make([]bool, len(records))
	volumeIdx := make([]string, len(records))
	fileIdx := make([]uint64, len(records))
	parentIdx := make([]int64, len(records))

	for i, rec := range records {
		nameOffsets[i] = uint32(namesBlob.Len())
		namesBlob.WriteString(rec.Name)
		namesBlob.WriteByte(0)

		pathOffsets[i] = uint32(pathsBlob.Len())
		pathsBlob.WriteString(rec.Path)
		pathsBlob.WriteByte(0)

		isDir[i] = rec.IsDir
		volumeIdx[i] = string(rec.VolumeID)
		fileIdx[i] = uint64(rec.ID)
		if rec.ParentID != nil {
			parentIdx[i] = int64(*rec.ParentID)
		} else {
			parentIdx[i] = -1
		}
	}

	var buf bytes.Buffer
	writeU32(&buf, uint32(len(metaRaw)))
	buf.Write(metaRaw)

	writeU32(&buf, uint32(len(records)))
	for _, v := range isDir {
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	for _, off := range nameOffsets {
		writeU32(&buf, off)
	}
	for _, off := range pathOffsets {
		writeU32(&buf, off)
	}
	for _, fid := range fileIdx {
		writeU64(&buf, fid)
	}
	for _, pid := range parentIdx {
		writeI64(&buf, pid)
	}
	for _, v := range volumeIdx {
		writeU32(&buf, uint32(len(v)))
		buf.WriteString(v)
	}

	writeU32(&buf, uint32(namesBlob.Len()))
	buf.Write(namesBlob.Bytes())
	writeU32(&buf, uint32(pathsBlob.Len()))
	buf.Write(pathsBlob.Bytes())

	return buf.Bytes(), nil
}

func decodeV3Body(body []byte) (metaPayload, []types.FileRecord, error) {
	archive, err := parseV3(body)
	if err != nil {
		return metaPayload{}, nil, err
	}
	records := archive.Materialize()
	return archive.Meta, records, nil
}

func parseV3(body []byte) (*Archive, error) {
	r := &cursor{buf: body}

	metaLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	metaRaw, err := r.bytes(int(metaLen))
	if err != nil {
		return nil, err
	}
	var meta metaPayload
	if err := gobDecode(metaRaw, &meta); err != nil {
		return nil, err
	}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	n := int(count)

	isDirBytes, err := r.bytes(n)
	if err != nil {
		return nil, err
	}
	isDir := make([]bool, n)
	for i, b := range isDirBytes {
		isDir[i] = b != 0
	}

	nameOffsets := make([]uint32, n)
	for i := range nameOffsets {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		nameOffsets[i] = v
	}
	pathOffsets := make([]uint32, n)
	for i := range pathOffsets {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		pathOffsets[i] = v
	}
	fileIDs := make([]types.FileId, n)
	for i := range fileIDs {
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		fileIDs[i] = types.FileId(v)
	}
	parents := make([]int64, n)
	for i := range parents {
		v, err := r.i64()
		if err != nil {
			return nil, err
		}
		parents[i] = v
	}
	volumes := make([]types.VolumeId, n)
	for i := range volumes {
		l, err := r.u32()
		if err != nil {
			return nil, err
		}
		s, err := r.bytes(int(l))
		if err != nil {
			return nil, err
		}
		volumes[i] = types.VolumeId(string(s))
	}

	namesLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	namesBlob, err := r.bytes(int(namesLen))
	if err != nil {
		return nil, err
	}
	pathsLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	pathsBlob, err := r.bytes(int(pathsLen))
	if err != nil {
		return nil, err
	}

	return &Archive{
		IsDir:       isDir,
		NameOffsets: nameOffsets,
		PathOffsets: pathOffsets,
		NamesBlob:   namesBlob,
		PathsBlob:   pathsBlob,
		Meta:        meta,
		VolumeByIdx: volumes,
		FileIDByIdx: fileIDs,
		ParentByIdx: parents,
	}, nil
}

// Materialize expands the archive into a conventional record sequence.
// The search package works only on record sequences, so an Archive is
// searched through the records this returns.
func (a *Archive) Materialize() []types.FileRecord {
	n := len(a.IsDir)
	out := make([]types.FileRecord, n)
	for i := 0; i < n; i++ {
		name := readCString(a.NamesBlob, int(a.NameOffsets[i]))
		path := readCString(a.PathsBlob, int(a.PathOffsets[i]))
		var parentID *types.FileId
		if a.ParentByIdx[i] >= 0 {
			p := types.FileId(a.ParentByIdx[i])
			parentID = &p
		}
		rec := types.NewFileRecord(a.FileIDByIdx[i], parentID, a.VolumeByIdx[i], name, path, a.IsDir[i])
		out[i] = rec
	}
	return out
}

// LoadMapped opens path with mmap, copies the whole file into a heap
// buffer, validates header, footer, and CRC, and parses the body as a v3
// archive. The returned Archive refers to that buffer, not to the mapped
// memory. The returned ReaderAt is still open and must be closed by the
// caller.
func LoadMapped(path string) (*Archive, *mmap.ReaderAt, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, nil, &glinterrors.FilesystemError{Operation: "mmap open", Reason: err.Error()}
	}

	full := make([]byte, ra.Len())
	if _, err := ra.ReadAt(full, 0); err != nil {
		ra.Close()
		return nil, nil, &glinterrors.FilesystemError{Operation: "mmap read", Reason: err.Error()}
	}

	header, err := DecodeHeader(full)
	if err != nil {
		ra.Close()
		return nil, nil, err
	}
	if header.Version != 3 {
		ra.Close()
		return nil, nil, &glinterrors.IndexVersionMismatchError{Found: header.Version, Expected: 3}
	}

	bodyEnd := len(full) - footerSize
	body := full[headerSize:bodyEnd]
	crc, err := DecodeFooter(full)
	if err != nil {
		ra.Close()
		return nil, nil, err
	}
	if err := validateCRC(body, crc); err != nil {
		ra.Close()
		return nil, nil, err
	}

	archive, err := parseV3(body)
	if err != nil {
		ra.Close()
		return nil, nil, err
	}
	return archive, ra, nil
}

func readCString(blob []byte, offset int) string {
	if offset >= len(blob) {
		return ""
	}
	end := offset
	for end < len(blob) && blob[end] != 0 {
		end++
	}
	return string(blob[offset:end])
}

type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, &glinterrors.IndexCorruptedError{Reason: "truncated v3 archive"}
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) i64() (int64, error) {
	v, err := c.u64()
	return int64(v), err
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeI64(buf *bytes.Buffer, v int64) {
	writeU64(buf, uint64(v))
}
