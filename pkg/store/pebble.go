package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"parley/pkg/logger"
	"parley/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string
)

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// ErrThreadDeleted is returned when loading a soft-deleted thread.
var ErrThreadDeleted = fmt.Errorf("thread deleted")

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func metaKey(threadID string) []byte {
	return []byte("thread:" + threadID + ":meta")
}

func msgPrefix(threadID string) []byte {
	return []byte("thread:" + threadID + ":msg:")
}

func unreadKey(threadID, recipient string) []byte {
	return []byte("thread:" + threadID + ":unread:" + recipient)
}

// SaveThread writes the thread metadata record.
func SaveThread(rec models.ThreadRecord) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if rec.CreatedTS == 0 {
		rec.CreatedTS = time.Now().UTC().UnixNano()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal thread: %w", err)
	}
	if err := db.Set(metaKey(rec.ID), data, pebble.Sync); err != nil {
		logger.Error("save_thread_failed", "thread", rec.ID, "error", err)
		return err
	}
	logger.Info("thread_saved", "thread", rec.ID)
	return nil
}

// GetThread reads the thread metadata record.
func GetThread(id string) (models.ThreadRecord, error) {
	var rec models.ThreadRecord
	if db == nil {
		return rec, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(metaKey(id))
	if err != nil {
		return rec, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &rec); err != nil {
		return rec, fmt.Errorf("invalid thread metadata: %w", err)
	}
	return rec, nil
}

// AppendMessage appends a message to a thread under a sortable timestamp
// key and bumps the persisted unread counter of every recipient except the
// sender. The thread metadata record is created on first append. Returns
// the message id (assigned here when the caller omitted it).
func AppendMessage(threadID string, msg models.Message) (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	rec, err := GetThread(threadID)
	if err == pebble.ErrNotFound {
		rec = models.ThreadRecord{ID: threadID, CreatedTS: time.Now().UTC().UnixNano()}
		if msg.Sender != "" {
			rec.Recipients = append(rec.Recipients, models.Identity{Address: msg.Sender})
		}
		if err := SaveThread(rec); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	if rec.Deleted {
		return "", ErrThreadDeleted
	}
	// a sender not yet in the recipient set joins it, mirroring how the
	// in-memory thread grows its recipients
	if msg.Sender != "" {
		known := false
		for _, r := range rec.Recipients {
			if r.Address == msg.Sender {
				known = true
				break
			}
		}
		if !known {
			rec.Recipients = append(rec.Recipients, models.Identity{Address: msg.Sender})
			if err := SaveThread(rec); err != nil {
				return "", err
			}
		}
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	ts := msg.TS
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
		msg.TS = ts
	}
	s := atomic.AddUint64(&seq, 1)
	key := fmt.Sprintf("thread:%s:msg:%020d-%06d", threadID, ts, s)

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_message_failed", "thread", threadID, "key", key, "error", err)
		return "", err
	}
	logger.Info("message_saved", "thread", threadID, "key", key, "msg_id", msg.ID)

	for _, r := range rec.Recipients {
		if r.Address == "" || r.Address == msg.Sender {
			continue
		}
		if err := bumpUnread(threadID, r.Address); err != nil {
			return "", err
		}
	}
	return msg.ID, nil
}

// ListMessages returns up to limit messages for a thread in insertion
// order (all when limit <= 0).
func ListMessages(threadID string, limit int) ([]models.Message, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := msgPrefix(threadID)
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{}, prefix...), 0xff),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			logger.Warn("skip_invalid_message", "thread", threadID, "error", err)
			continue
		}
		out = append(out, m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func bumpUnread(threadID, recipient string) error {
	n, _ := getUnread(threadID, recipient)
	return db.Set(unreadKey(threadID, recipient), []byte(strconv.Itoa(n+1)), pebble.Sync)
}

func getUnread(threadID, recipient string) (int, error) {
	v, closer, err := db.Get(unreadKey(threadID, recipient))
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MarkRead resets the persisted unread counter for recipient to zero.
func MarkRead(threadID, recipient string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set(unreadKey(threadID, recipient), []byte("0"), pebble.Sync)
}

// UnreadCounts returns the persisted unread counters for a thread.
func UnreadCounts(threadID string) (map[string]int, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("thread:" + threadID + ":unread:")
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{}, prefix...), 0xff),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	out := make(map[string]int)
	for iter.First(); iter.Valid(); iter.Next() {
		recipient := string(iter.Key()[len(prefix):])
		if n, err := strconv.Atoi(string(iter.Value())); err == nil {
			out[recipient] = n
		}
	}
	return out, nil
}

// LoadThread hydrates a full thread snapshot: metadata, messages and
// unread counters.
func LoadThread(id string) (models.ThreadSnapshot, error) {
	var snap models.ThreadSnapshot
	rec, err := GetThread(id)
	if err != nil {
		return snap, err
	}
	if rec.Deleted {
		return snap, ErrThreadDeleted
	}
	msgs, err := ListMessages(id, 0)
	if err != nil {
		return snap, err
	}
	unread, err := UnreadCounts(id)
	if err != nil {
		return snap, err
	}
	snap.Record = rec
	snap.Messages = msgs
	snap.Unread = unread
	return snap, nil
}

// DeleteThread soft-deletes a thread: the metadata is tombstoned and the
// unread counters removed; message history stays for audit until
// compaction policy says otherwise.
func DeleteThread(id string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	rec, err := GetThread(id)
	if err != nil {
		return err
	}
	rec.Deleted = true
	rec.DeletedTS = time.Now().UTC().UnixNano()
	if err := SaveThread(rec); err != nil {
		return err
	}
	unread, err := UnreadCounts(id)
	if err != nil {
		return err
	}
	for recipient := range unread {
		if err := db.Delete(unreadKey(id, recipient), pebble.Sync); err != nil {
			return err
		}
	}
	logger.Info("thread_deleted", "thread", id)
	return nil
}

// DiskUsage reports the store's on-disk footprint in bytes.
func DiskUsage() uint64 {
	if db == nil {
		return 0
	}
	return db.Metrics().DiskSpaceUsage()
}
