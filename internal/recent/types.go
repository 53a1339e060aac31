package recent

import (
	"fmt"
	"time"

	"datapresso/internal/capability"
	"datapresso/internal/store"
)

// Record describes a previously opened project.
type Record struct {
	ID         string
	Name       string
	Directory  *capability.Directory
	LastOpened time.Time
}

// storedRecord is the persisted shape of a Record. The directory is kept as
// an opaque capability blob.
type storedRecord struct {
	ID         string `cbor:"id"`
	Name       string `cbor:"name"`
	Directory  []byte `cbor:"directory"`
	LastOpened int64  `cbor:"lastOpened"`
}

func encodeRecord(rec Record) ([]byte, error) {
	blob, err := rec.Directory.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return store.Marshal(storedRecord{
		ID:         rec.ID,
		Name:       rec.Name,
		Directory:  blob,
		LastOpened: rec.LastOpened.UnixMilli(),
	})
}

func decodeRecord(data []byte) (Record, error) {
	var s storedRecord
	if err := store.Unmarshal(data, &s); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	if s.ID == "" {
		return Record{}, fmt.Errorf("record has no id")
	}
	dir, err := capability.Restore(s.Directory)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:         s.ID,
		Name:       s.Name,
		Directory:  dir,
		LastOpened: time.UnixMilli(s.LastOpened),
	}, nil
}
