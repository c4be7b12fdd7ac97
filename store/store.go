// ABOUTME: Durable key-value store contract and whole-collection JSON blobs
// ABOUTME: Corrupt blobs are discarded and treated as empty collections
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Fixed keys for persisted collections.
const (
	KeyVisitSessions      = "worklyVisitSessions"
	KeyCanvassingSessions = "worklyCanvassingSessions"
	KeyActiveSessionID    = "activeSessionId"
	KeyVisits             = "worklyVisits"
	KeyContacts           = "worklyContacts"
	KeyDeals              = "worklyDeals"
	KeyActivities         = "worklyActivities"
)

// KV is a durable get/set/remove byte store. Implementations return
// ErrNotFound from Get for missing keys.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// LoadJSON decodes the blob under key into v, which must be a non-nil pointer.
// It reports false when the key is missing, unreadable, or corrupt; a corrupt
// blob is removed from kv and v is left untouched.
func LoadJSON(kv KV, key string, v interface{}, logger *zap.Logger) bool {
	if kv == nil {
		return false
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := kv.Get([]byte(key))
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Warn("failed to read stored collection", zap.String("key", key), zap.Error(err))
		return false
	}

	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		logger.Warn("cannot load collection into non-pointer", zap.String("key", key))
		return false
	}

	// Decode into a scratch value so a blob that fails halfway leaves v as it was.
	tmp := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, tmp.Interface()); err != nil {
		logger.Warn("discarding corrupt stored collection", zap.String("key", key), zap.Error(err))
		if delErr := kv.Delete([]byte(key)); delErr != nil {
			logger.Warn("failed to remove corrupt collection", zap.String("key", key), zap.Error(delErr))
		}
		return false
	}
	target.Elem().Set(tmp.Elem())
	return true
}

// SaveJSON rewrites the whole blob under key.
func SaveJSON(kv KV, key string, v interface{}) error {
	if kv == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set([]byte(key), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// LoadString reads a plain string value. Missing keys yield "".
func LoadString(kv KV, key string) (string, error) {
	if kv == nil {
		return "", nil
	}
	data, err := kv.Get([]byte(key))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveString writes value under key, or removes the key when value is empty.
func SaveString(kv KV, key, value string) error {
	if kv == nil {
		return nil
	}
	if value == "" {
		err := kv.Delete([]byte(key))
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return kv.Set([]byte(key), []byte(value))
}
