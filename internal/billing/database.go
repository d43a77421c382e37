package billing

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	billingBucket  = "billing_records"
	dedupBucket    = "billing_dedup_keys"
	categoryBucket = "categories"
)

// DB defines the interface for database operations
type DB interface {
	// HasDedupKey reports whether a record with the given dedup key is
	// already stored.
	HasDedupKey(key string) (bool, error)

	// InsertBillingRecord stores rec and assigns its ID unless another
	// record already holds its dedup key. The uniqueness check and the
	// insert run in one transaction. Reports whether rec was inserted.
	InsertBillingRecord(rec *BillingRecord) (bool, error)

	// GetBillingRecord retrieves a record by ID
	GetBillingRecord(id uint64) (*BillingRecord, error)

	// ListBillingRecords returns all records in insertion order
	ListBillingRecords() ([]*BillingRecord, error)

	// AssignCategory sets the category on a record, verifying that both
	// the record and the category exist.
	AssignCategory(recordID, categoryID uint64) error

	// SaveCategory stores a category, assigning its ID when zero
	SaveCategory(category *Category) error

	// ListCategories returns all categories
	ListCategories() ([]*Category, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{billingBucket, dedupBucket, categoryBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// itob encodes an ID as a big-endian key so bucket order is insertion order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// HasDedupKey reports whether a record with the given dedup key exists
func (b *BoltDB) HasDedupKey(key string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(dedupBucket)).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

// InsertBillingRecord stores a record unless its dedup key is taken
func (b *BoltDB) InsertBillingRecord(rec *BillingRecord) (bool, error) {
	inserted := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		keys := tx.Bucket([]byte(dedupBucket))
		if keys.Get([]byte(rec.DedupKey)) != nil {
			// Same billing event already stored; idempotent no-op.
			return nil
		}

		records := tx.Bucket([]byte(billingBucket))
		id, err := records.NextSequence()
		if err != nil {
			return fmt.Errorf("assigning record id: %w", err)
		}
		rec.ID = id

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling billing record: %w", err)
		}
		if err := records.Put(itob(id), data); err != nil {
			return err
		}
		if err := keys.Put([]byte(rec.DedupKey), itob(id)); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// GetBillingRecord retrieves a record by ID
func (b *BoltDB) GetBillingRecord(id uint64) (*BillingRecord, error) {
	var rec *BillingRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(billingBucket)).Get(itob(id))
		if data == nil {
			return ErrRecordNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListBillingRecords returns all records in insertion order
func (b *BoltDB) ListBillingRecords() ([]*BillingRecord, error) {
	records := make([]*BillingRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(billingBucket)).ForEach(func(k, v []byte) error {
			var rec BillingRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling billing record: %w", err)
			}
			records = append(records, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AssignCategory sets the category on a record
func (b *BoltDB) AssignCategory(recordID, categoryID uint64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(categoryBucket)).Get(itob(categoryID)) == nil {
			return ErrCategoryNotFound
		}

		records := tx.Bucket([]byte(billingBucket))
		data := records.Get(itob(recordID))
		if data == nil {
			return ErrRecordNotFound
		}

		var rec BillingRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshaling billing record: %w", err)
		}
		rec.CategoryID = &categoryID

		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshaling billing record: %w", err)
		}
		return records.Put(itob(recordID), updated)
	})
}

// SaveCategory stores a category, assigning its ID when zero
func (b *BoltDB) SaveCategory(category *Category) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(categoryBucket))
		if category.ID == 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("assigning category id: %w", err)
			}
			category.ID = id
		}
		data, err := json.Marshal(category)
		if err != nil {
			return fmt.Errorf("marshaling category: %w", err)
		}
		return bucket.Put(itob(category.ID), data)
	})
}

// ListCategories returns all categories
func (b *BoltDB) ListCategories() ([]*Category, error) {
	categories := make([]*Category, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(categoryBucket)).ForEach(func(k, v []byte) error {
			var category Category
			if err := json.Unmarshal(v, &category); err != nil {
				return fmt.Errorf("unmarshaling category: %w", err)
			}
			categories = append(categories, &category)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
