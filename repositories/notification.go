package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"studio-live/domain"
	"studio-live/errors"
)

// NotificationRepository persists durable notification records in BadgerDB.
// The key is formatted as "ntf:{recipient}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if two
//     records land on the same nanosecond.
type NotificationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger, limit *int) NotificationRepository {
	return NotificationRepository{db: db, log: log, limit: limit}
}

func key(recipient string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("ntf:%s:%019d:%s", recipient, at.UnixNano(), id))
}

func (r NotificationRepository) Store(n domain.Notification) error {
	bytes, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(n.Recipient, n.CreatedAt, n.ID), bytes)
	})
}

// List retrieves a recipient's notifications newest-first using a reverse
// prefix scan. Thanks to the padded timestamp in the key the records are
// naturally sorted by time; the returned cursor resumes after the last key.
func (r NotificationRepository) List(recipient string, cursor *string) ([]domain.Notification, *string, error) {
	var raw [][]byte
	var lastKey string

	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("ntf:%s:", recipient)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key for this recipient, then
			// iterate backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limit != nil && len(raw) == *r.limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d notifications reached", *r.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	notifications := make([]domain.Notification, 0, len(raw))
	for _, b := range raw {
		var n domain.Notification
		if err := json.Unmarshal(b, &n); err != nil {
			return nil, nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, &lastKey, nil
}

// MarkRead flips the read flag of one record, the only mutation the core is
// allowed to perform after creation.
func (r NotificationRepository) MarkRead(recipient string, id uuid.UUID) error {
	prefix := []byte(fmt.Sprintf("ntf:%s:", recipient))
	return r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var n domain.Notification
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &n)
			})
			if err != nil {
				return err
			}
			if n.ID != id {
				continue
			}
			n.Read = true
			bytes, err := json.Marshal(n)
			if err != nil {
				return err
			}
			return txn.Set(append([]byte(nil), item.Key()...), bytes)
		}
		return fmt.Errorf("%w: notification %s for %s", errors.ErrNotFound, id, recipient)
	})
}
