package persistence

import "github.com/padiauj/glint/internal/types"

// decodeV1Body parses the legacy single-blob body: an optionally
// LZ4-wrapped encoding of {stats, [volume_state], [FileRecord]}.
func decodeV1Body(body []byte, flags uint32) (metaPayload, []types.FileRecord, error) {
	raw := body
	if flags&FlagLZ4Compressed != 0 {
		decompressed, err := lz4Decompress(body)
		if err != nil {
			return metaPayload{}, nil, err
		}
		raw = decompressed
	}

	var payload legacyPayload
	if err := gobDecode(raw, &payload); err != nil {
		return metaPayload{}, nil, err
	}
	for i := range payload.Records {
		payload.Records[i].InitCache()
	}
	return payload.Meta, payload.Records, nil
}

// encodeV1Body writes the legacy single-blob body. Nothing in the package
// calls it; Save always writes version 2 via encodeV2Body.
func encodeV1Body(meta metaPayload, records []types.FileRecord) ([]byte, uint32, error) {
	payload := legacyPayload{Meta: meta, Records: records}
	raw, err := gobEncode(payload)
	if err != nil {
		return nil, 0, err
	}
	compressed, err := lz4Compress(raw)
	if err != nil {
		return nil, 0, err
	}
	return compressed, FlagLZ4Compressed, nil
}
