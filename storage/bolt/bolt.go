// Package bolt implements storage.Storage with BoltDB.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/morpha/storage"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds images when Storage.Bucket is empty.
var DefaultBucket = "images"

type Storage struct {
	Debug bool

	// Bucket is the name of the bucket that holds images.
	Bucket string

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	if filename == "" {
		return nil, errors.New("need a filename")
	}
	return &Storage{
		Bucket:   DefaultBucket,
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db

	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket())
		return err
	})
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) bucket() []byte {
	if s.Bucket == "" {
		return []byte(DefaultBucket)
	}
	return []byte(s.Bucket)
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) Put(ctx context.Context, img *storage.Image) error {
	if img.Name == "" {
		return errors.New("image has no name")
	}

	// To save some space, remove the name, which is the key.
	js, err := json.Marshal(&storage.Image{
		Snapshot: img.Snapshot,
		Names:    img.Names,
	})
	if err != nil {
		return err
	}

	s.logf("Put %s (%d bytes)", img.Name, len(js))

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket()).Put([]byte(img.Name), js)
	})
}

func (s *Storage) Get(ctx context.Context, name string) (*storage.Image, error) {
	s.logf("Get %s", name)

	var img *storage.Image
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(s.bucket()).Get([]byte(name))
		if bs == nil {
			return storage.NotFound
		}
		img = &storage.Image{}
		return json.Unmarshal(bs, img)
	})
	if err != nil {
		return nil, err
	}
	img.Name = name

	return img, nil
}

func (s *Storage) Rem(ctx context.Context, name string) error {
	s.logf("Rem %s", name)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket()).Delete([]byte(name))
	})
}

func (s *Storage) List(ctx context.Context) ([]string, error) {
	acc := make([]string, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket()).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("List found %d images", len(acc))

	return acc, nil
}
