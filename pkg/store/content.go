package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
)

// seq provides a small counter so two items sharing the same millisecond
// timestamp within a partition still get distinct keys.
var seq uint64

const tsWidth = 20

func contentPrefix(partition string) []byte {
	return []byte("content:" + partition + ":")
}

// contentKey encodes the caller-supplied timestamp zero-padded so partition
// iteration yields items in timestamp order.
// Key format: content:<partition>:<epoch_ms_padded>-<seq>
func contentKey(partition string, ts int64, s uint64) []byte {
	return []byte(fmt.Sprintf("content:%s:%0*d-%06d", partition, tsWidth, ts, s))
}

// keyTimestamp extracts the encoded timestamp from a content key, given the
// partition prefix it was listed under.
func keyTimestamp(key, prefix []byte) (int64, bool) {
	rest := key[len(prefix):]
	if len(rest) < tsWidth {
		return 0, false
	}
	ts, err := strconv.ParseInt(string(rest[:tsWidth]), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// SaveContent appends a content item to a partition. Image ids are not
// deduplicated at this layer; the protocol assumes callers supply unique ids.
func SaveContent(partition string, item models.ContentItem) error {
	if db == nil {
		return errNotOpen
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	key := contentKey(partition, item.Timestamp, atomic.AddUint64(&seq, 1))
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_content_failed", "partition", partition, "key", string(key), "error", err)
		return err
	}
	logger.Info("content_saved", "partition", partition, "image_id", item.ImageID, "type", item.Type)
	return nil
}

// ListContent returns all items in a partition in timestamp order.
func ListContent(partition string) ([]models.ContentItem, error) {
	if db == nil {
		return nil, errNotOpen
	}
	prefix := contentPrefix(partition)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.ContentItem
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var item models.ContentItem
		if err := json.Unmarshal(iter.Value(), &item); err != nil {
			logger.Warn("skip_invalid_content_record", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, iter.Error()
}

// DeleteContentByImageID deletes at most one item with the given image id
// from a partition. Deleting a missing id is a no-op, not an error.
func DeleteContentByImageID(partition, imageID string) error {
	if db == nil {
		return errNotOpen
	}
	prefix := contentPrefix(partition)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var item models.ContentItem
		if err := json.Unmarshal(iter.Value(), &item); err != nil {
			continue
		}
		if item.ImageID != imageID {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := db.Delete(key, pebble.Sync); err != nil {
			logger.Error("delete_content_failed", "partition", partition, "image_id", imageID, "error", err)
			return err
		}
		logger.Info("content_deleted", "partition", partition, "image_id", imageID)
		return nil
	}
	return iter.Error()
}

// DeleteContentOlderThan deletes every item in a partition whose timestamp
// is strictly below cutoffMs and returns the number deleted. Keys are
// timestamp-ordered, so the scan stops at the first surviving item.
func DeleteContentOlderThan(partition string, cutoffMs int64) (int, error) {
	if db == nil {
		return 0, errNotOpen
	}
	prefix := contentPrefix(partition)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	deleted := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		ts, ok := keyTimestamp(iter.Key(), prefix)
		if ok && ts >= cutoffMs {
			break
		}
		key := append([]byte(nil), iter.Key()...)
		if err := db.Delete(key, pebble.Sync); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		logger.Info("content_expired", "partition", partition, "deleted", deleted, "cutoff_ms", cutoffMs)
	}
	return deleted, iter.Error()
}
