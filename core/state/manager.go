package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"sftledger/storage"
)

// Manager provides typed access to the key-value store shared by the token
// ledger and the royalty registry. Values are RLP encoded; absence is reported
// rather than treated as an error.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVPut encodes value with RLP and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key was present.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errors.New("state: manager not initialised")
	}
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key. Deleting an absent key is not
// an error.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	return m.db.Delete(key)
}

// NewKVBatch returns a batch that stages encoded writes and commits them
// atomically via Write.
func (m *Manager) NewKVBatch() *KVBatch {
	if m == nil || m.db == nil {
		return nil
	}
	return &KVBatch{batch: m.db.NewBatch()}
}

// KVBatch stages RLP-encoded puts and deletes against the underlying store.
// Nothing is visible to readers until Write commits the whole batch.
type KVBatch struct {
	batch storage.Batch
}

// KVPut stages an encoded write.
func (b *KVBatch) KVPut(key []byte, value interface{}) error {
	if b == nil || b.batch == nil {
		return errors.New("state: batch not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return b.batch.Put(key, encoded)
}

// KVDelete stages a delete.
func (b *KVBatch) KVDelete(key []byte) error {
	if b == nil || b.batch == nil {
		return errors.New("state: batch not initialised")
	}
	return b.batch.Delete(key)
}

// Write commits all staged operations in one atomic step.
func (b *KVBatch) Write() error {
	if b == nil || b.batch == nil {
		return errors.New("state: batch not initialised")
	}
	return b.batch.Write()
}
