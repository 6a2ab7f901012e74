package store

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
)

const partitionKeyPrefix = "partition:"

// partitionCache remembers partitions already provisioned in this process
// so repeated EnsurePartition calls skip the registry read. It is reset on
// Open/Close.
var partitionCache sync.Map

func resetPartitionCache() {
	partitionCache = sync.Map{}
}

// DerivePartitionName maps a username to its storage partition name:
// lowercase, with every character outside [a-z0-9] replaced by '_'.
// Two distinct usernames can collide (e.g. "a-b" and "a_b"); the registry
// record keeps the owning username so collisions are observable.
func DerivePartitionName(username string) string {
	lower := strings.ToLower(username)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// EnsurePartition provisions the partition registry record for a username
// and returns the derived partition name. It is idempotent and safe under
// concurrent first-write races: a duplicate creation attempt rewrites the
// same record and is not an error.
func EnsurePartition(username string) (string, error) {
	if db == nil {
		return "", errNotOpen
	}
	name := DerivePartitionName(username)
	if _, ok := partitionCache.Load(name); ok {
		return name, nil
	}
	key := []byte(partitionKeyPrefix + name)
	if _, found, err := getRaw(key); err != nil {
		return "", err
	} else if found {
		partitionCache.Store(name, struct{}{})
		return name, nil
	}
	info := models.PartitionInfo{
		Name:      name,
		Username:  strings.ToLower(username),
		CreatedTS: time.Now().UTC().UnixMilli(),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_partition_failed", "partition", name, "error", err)
		return "", err
	}
	partitionCache.Store(name, struct{}{})
	logger.Info("partition_provisioned", "partition", name, "username", info.Username)
	return name, nil
}

// ListPartitions returns all partition registry records in key order.
func ListPartitions() ([]models.PartitionInfo, error) {
	if db == nil {
		return nil, errNotOpen
	}
	prefix := []byte(partitionKeyPrefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.PartitionInfo
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var info models.PartitionInfo
		if err := json.Unmarshal(iter.Value(), &info); err != nil {
			logger.Warn("skip_invalid_partition_record", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, info)
	}
	return out, iter.Error()
}
