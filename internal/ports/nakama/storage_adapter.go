package nakama

import (
	"context"
	"errors"
	"fmt"

	"avgrunnen/internal/ports"
	"avgrunnen/internal/storage"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// storageModule is the part of runtime.NakamaModule the storage adapter needs.
type storageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaStorageAdapter implements storage.Backend with Nakama storage objects.
// Documents are owned by the system user so every session member can reach them
// through the server only.
type NakamaStorageAdapter struct {
	nk         storageModule
	collection string
}

// NewNakamaStorageAdapter creates a new storage adapter over collection.
func NewNakamaStorageAdapter(nk storageModule, collection string) *NakamaStorageAdapter {
	if collection == "" {
		collection = GameCollection
	}
	return &NakamaStorageAdapter{nk: nk, collection: collection}
}

// Get reads the stored document under key.
func (a *NakamaStorageAdapter) Get(ctx context.Context, key string) (storage.Record, bool, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: a.collection,
		Key:        key,
		UserID:     "",
	}})
	if err != nil {
		return storage.Record{}, false, fmt.Errorf("failed to read storage object %s: %w", key, err)
	}
	for _, obj := range objects {
		if obj.GetKey() == key {
			return storage.Record{Data: []byte(obj.GetValue()), Version: obj.GetVersion()}, true, nil
		}
	}
	return storage.Record{}, false, nil
}

// Put writes data only if the stored version still equals expected.
func (a *NakamaStorageAdapter) Put(ctx context.Context, key string, data []byte, expected string) (string, error) {
	version := expected
	if version == "" {
		// "*" asks Nakama to reject the write if the object already exists.
		version = "*"
	}
	ack, err := a.write(ctx, key, data, version)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", ports.ErrVersionConflict
		}
		return "", err
	}
	return ack, nil
}

// Overwrite writes data unconditionally.
func (a *NakamaStorageAdapter) Overwrite(ctx context.Context, key string, data []byte) (string, error) {
	return a.write(ctx, key, data, "")
}

func (a *NakamaStorageAdapter) write(ctx context.Context, key string, data []byte, version string) (string, error) {
	acks, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      a.collection,
		Key:             key,
		UserID:          "",
		Value:           string(data),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", err
		}
		return "", fmt.Errorf("failed to write storage object %s: %w", key, err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("failed to write storage object %s: no ack", key)
	}
	return acks[0].GetVersion(), nil
}

var _ storage.Backend = (*NakamaStorageAdapter)(nil)
