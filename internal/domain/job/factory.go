package job

import (
	"time"

	"github.com/mediaflow/backend/internal/shared/id"
)

// Factory constructs new job records and inserts them into the store.
// IDs are prefixed ULIDs, combining a millisecond timestamp with random
// entropy so repeated calls never collide within a process. Were a
// collision ever produced, Put overwrites the existing record.
type Factory struct {
	store *Store
	newID func() string
	now   func() time.Time
}

// NewFactory creates a factory writing to store
func NewFactory(store *Store) *Factory {
	return &Factory{
		store: store,
		newID: func() string { return id.NewJobID().String() },
		now:   time.Now,
	}
}

// NewFactoryWithClock creates a factory with injectable ID and clock
// sources for deterministic tests.
func NewFactoryWithClock(store *Store, newID func() string, now func() time.Time) *Factory {
	return &Factory{
		store: store,
		newID: newID,
		now:   now,
	}
}

// Create mints a pending job for the given upload metadata, stores it, and
// returns the record. The metadata is captured as-is and never re-validated.
func (f *Factory) Create(fileName, fileType string, fileSize int64) Job {
	j := Job{
		ID:        f.newID(),
		FileName:  fileName,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    StatusPending,
		CreatedAt: f.now(),
	}

	f.store.Put(j)
	return j
}
