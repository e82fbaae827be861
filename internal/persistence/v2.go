package persistence

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

// encodeV2Body builds the chunked body:
// u32 meta_len | meta_bytes | u32 chunk_count | (u32 chunk_len | chunk_bytes) * chunk_count
// meta_bytes and each chunk are LZ4-compressed.
func encodeV2Body(meta metaPayload, records []types.FileRecord) ([]byte, uint32, error) {
	metaRaw, err := gobEncode(meta)
	if err != nil {
		return nil, 0, err
	}
	metaBytes, err := lz4Compress(metaRaw)
	if err != nil {
		return nil, 0, err
	}

	chunks := chunkRecords(records, chunkRecordLimit)
	chunkBytes := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		raw, err := gobEncode(chunk)
		if err != nil {
			return nil, 0, err
		}
		compressed, err := lz4Compress(raw)
		if err != nil {
			return nil, 0, err
		}
		chunkBytes[i] = compressed
	}

	size := 4 + len(metaBytes) + 4
	for _, c := range chunkBytes {
		size += 4 + len(c)
	}
	out := make([]byte, 0, size)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(metaBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, metaBytes...)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(chunkBytes)))
	out = append(out, lenBuf[:]...)

	for _, c := range chunkBytes {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(c)))
		out = append(out, lenBuf[:]...)
		out = append(out, c...)
	}

	return out, FlagLZ4Compressed | FlagChunked, nil
}

// decodeV2Body parses the chunked body, decompressing and deserializing
// chunks in parallel.
func decodeV2Body(body []byte, flags uint32) (metaPayload, []types.FileRecord, error) {
	pos := 0
	readU32 := func() (uint32, error) {
		if pos+4 > len(body) {
			return 0, &glinterrors.IndexCorruptedError{Reason: "truncated chunk length"}
		}
		v := binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		return v, nil
	}

	metaLen, err := readU32()
	if err != nil {
		return metaPayload{}, nil, err
	}
	if pos+int(metaLen) > len(body) {
		return metaPayload{}, nil, &glinterrors.IndexCorruptedError{Reason: "truncated meta section"}
	}
	metaBytes := body[pos : pos+int(metaLen)]
	pos += int(metaLen)

	metaRaw := metaBytes
	if flags&FlagLZ4Compressed != 0 {
		metaRaw, err = lz4Decompress(metaBytes)
		if err != nil {
			return metaPayload{}, nil, err
		}
	}
	var meta metaPayload
	if err := gobDecode(metaRaw, &meta); err != nil {
		return metaPayload{}, nil, err
	}

	chunkCount, err := readU32()
	if err != nil {
		return metaPayload{}, nil, err
	}

	chunkSlices := make([][]byte, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		chunkLen, err := readU32()
		if err != nil {
			return metaPayload{}, nil, err
		}
		if pos+int(chunkLen) > len(body) {
			return metaPayload{}, nil, &glinterrors.IndexCorruptedError{Reason: fmt.Sprintf("truncated chunk %d", i)}
		}
		chunkSlices[i] = body[pos : pos+int(chunkLen)]
		pos += int(chunkLen)
	}

	results := make([][]types.FileRecord, chunkCount)
	errs := make([]error, chunkCount)
	var wg sync.WaitGroup
	for i := range chunkSlices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := chunkSlices[i]
			if flags&FlagLZ4Compressed != 0 {
				decompressed, err := lz4Decompress(raw)
				if err != nil {
					errs[i] = err
					return
				}
				raw = decompressed
			}
			var chunk []types.FileRecord
			if err := gobDecode(raw, &chunk); err != nil {
				errs[i] = err
				return
			}
			for j := range chunk {
				chunk[j].InitCache()
			}
			results[i] = chunk
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return metaPayload{}, nil, err
		}
	}

	var records []types.FileRecord
	for _, r := range results {
		records = append(records, r...)
	}
	return meta, records, nil
}

func chunkRecords(records []types.FileRecord, limit int) [][]types.FileRecord {
	if len(records) == 0 {
		return nil
	}
	var chunks [][]types.FileRecord
	for i := 0; i < len(records); i += limit {
		end := i + limit
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[i:end])
	}
	return chunks
}
