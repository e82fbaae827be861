package persistence

import (
	"bytes"
	"encoding/gob"

	"github.com/padiauj/glint/internal/catalog"
	"github.com/padiauj/glint/internal/types"
)

// volumeStatePayload is the gob-friendly projection of catalog.VolumeState;
// the catalog's own type carries a *types.JournalState the encoder handles
// fine, but keeping a dedicated payload type insulates the wire format
// from in-memory struct changes.
type volumeStatePayload struct {
	Descriptor   types.VolumeDescriptor
	JournalState *types.JournalState
	RecordCount  uint64
	NeedsRescan  bool
}

// metaPayload is the {stats, [volume_state]} pair shared by v1 and v2.
type metaPayload struct {
	Stats   types.IndexStats
	Volumes []volumeStatePayload
}

// legacyPayload is the full v1 body: meta plus every record in one blob.
type legacyPayload struct {
	Meta    metaPayload
	Records []types.FileRecord
}

func toVolumeStatePayloads(states []catalog.VolumeState) []volumeStatePayload {
	out := make([]volumeStatePayload, len(states))
	for i, s := range states {
		out[i] = volumeStatePayload{
			Descriptor:   s.Descriptor,
			JournalState: s.JournalState,
			RecordCount:  s.RecordCount,
			NeedsRescan:  s.NeedsRescan,
		}
	}
	return out
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
