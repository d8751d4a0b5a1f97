package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"fileuploader-backend/internal/domain"
)

var (
	assetsBucket = []byte("assets")
	namesBucket  = []byte("names")
)

// BoltStore implements Store on an embedded bbolt database. The names bucket
// indexes name+extension to the asset id and doubles as the uniqueness
// constraint: inserts and the index update share one write transaction, so a
// conflicting concurrent insert always loses.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(assetsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(namesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func nameKey(name, extension string) []byte {
	return append(append([]byte(name), 0), extension...)
}

func idKey(id int64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}

func (s *BoltStore) ExistsByName(ctx context.Context, name, extension string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(namesBucket).Get(nameKey(name, extension)) != nil
		return nil
	})
	return exists, err
}

func (s *BoltStore) Insert(ctx context.Context, asset *domain.Asset) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(namesBucket)
		key := nameKey(asset.Name, asset.Extension)
		if names.Get(key) != nil {
			return ErrDuplicateName
		}

		assets := tx.Bucket(assetsBucket)
		seq, err := assets.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		record := *asset
		record.ID = id
		encoded, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := assets.Put(idKey(id), encoded); err != nil {
			return err
		}
		return names.Put(key, idKey(id))
	})
	if err != nil {
		return 0, err
	}
	asset.ID = id
	return id, nil
}

func (s *BoltStore) FindByName(ctx context.Context, name, extension string) (*domain.Asset, error) {
	var a domain.Asset
	err := s.db.View(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(namesBucket).Get(nameKey(name, extension))
		if idBytes == nil {
			return ErrAssetNotFound
		}
		data := tx.Bucket(assetsBucket).Get(idBytes)
		if data == nil {
			return ErrAssetNotFound
		}
		return json.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BoltStore) UpdateStatusAndSize(ctx context.Context, id int64, status domain.AssetStatus, size int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(assetsBucket)
		data := assets.Get(idKey(id))
		if data == nil {
			return ErrAssetNotFound
		}
		var a domain.Asset
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		a.Status = status
		a.Size = size
		encoded, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return assets.Put(idKey(id), encoded)
	})
}

func (s *BoltStore) Delete(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(assetsBucket)
		data := assets.Get(idKey(id))
		if data == nil {
			return nil
		}
		var a domain.Asset
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		if err := tx.Bucket(namesBucket).Delete(nameKey(a.Name, a.Extension)); err != nil {
			return err
		}
		return assets.Delete(idKey(id))
	})
}

func (s *BoltStore) ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error) {
	var assets []domain.Asset
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(assetsBucket).ForEach(func(_, data []byte) error {
			var a domain.Asset
			if err := json.Unmarshal(data, &a); err != nil {
				return err
			}
			if a.Status == status {
				assets = append(assets, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}
