package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const deliveriesBucket = "deliveries"

// Delivery records when a chat message was first handled
type Delivery struct {
	MessageID string    `json:"message_id"`
	ChatID    string    `json:"chat_id"`
	SeenAt    time.Time `json:"seen_at"`
}

// Ledger defines the interface for delivery bookkeeping
type Ledger interface {
	// MarkSeen records a message and reports whether it was new
	MarkSeen(messageID, chatID string) (bool, error)

	// Seen reports whether a message was already recorded
	Seen(messageID string) (bool, error)

	// Prune removes deliveries recorded before cutoff
	Prune(cutoff time.Time) (int, error)

	// Close closes the database connection
	Close() error
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// BoltDB implements the Ledger interface using BoltDB
type BoltDB struct {
	db    *bbolt.DB
	clock TimeSource
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	return NewBoltDBWithDeps(path, defaultTimeSource{})
}

// NewBoltDBWithDeps creates a new BoltDB instance with a custom clock for testing
func NewBoltDBWithDeps(path string, clock TimeSource) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(deliveriesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db, clock: clock}, nil
}

// MarkSeen stores the delivery unless it already exists. The check and the
// write share one transaction.
func (b *BoltDB) MarkSeen(messageID, chatID string) (bool, error) {
	if messageID == "" {
		return true, nil
	}

	fresh := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(deliveriesBucket))
		if bucket.Get([]byte(messageID)) != nil {
			return nil
		}
		data, err := json.Marshal(Delivery{
			MessageID: messageID,
			ChatID:    chatID,
			SeenAt:    b.clock.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshaling delivery: %w", err)
		}
		fresh = true
		return bucket.Put([]byte(messageID), data)
	})
	if err != nil {
		return false, fmt.Errorf("marking %s as seen: %w", messageID, err)
	}
	return fresh, nil
}

// Seen reports whether messageID was recorded
func (b *BoltDB) Seen(messageID string) (bool, error) {
	seen := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		seen = tx.Bucket([]byte(deliveriesBucket)).Get([]byte(messageID)) != nil
		return nil
	})
	return seen, err
}

// Get retrieves a delivery by message ID
func (b *BoltDB) Get(messageID string) (*Delivery, error) {
	var delivery *Delivery
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(deliveriesBucket)).Get([]byte(messageID))
		if data == nil {
			return fmt.Errorf("delivery not found: %s", messageID)
		}
		return json.Unmarshal(data, &delivery)
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Prune deletes deliveries seen before cutoff and returns how many were removed
func (b *BoltDB) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(deliveriesBucket))

		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var delivery Delivery
			if err := json.Unmarshal(v, &delivery); err != nil {
				// unreadable entries are dropped too
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if delivery.SeenAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning deliveries: %w", err)
	}
	return removed, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
