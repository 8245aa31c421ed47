package reminder

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// DefaultKey is the storage key of the reminder collection. Other
// features keep their own keys in the same KV.
const DefaultKey = "todos"

// Store serializes the whole reminder collection under one key.
// Failures are logged and absorbed; callers never see an error.
type Store struct {
	kv     KV
	key    string
	logger *zap.Logger
}

// NewStore creates a Store. An empty key means DefaultKey.
func NewStore(kv KV, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, key: key, logger: logger.Named("store")}
}

// Load returns the persisted collection, or an empty one when nothing is
// stored, the stored payload is not a JSON array of reminders, or the
// storage cannot be read.
func (s *Store) Load() []Reminder {
	reminders, err := s.Read()
	if err != nil {
		s.logger.Warn("Failed to read reminders", zap.String("key", s.key), zap.Error(err))
		return []Reminder{}
	}
	return reminders
}

// Read is Load without absorbing read failures. A missing key or an
// unparseable payload still yields an empty collection.
func (s *Store) Read() ([]Reminder, error) {
	data, err := s.kv.Get(s.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []Reminder{}, nil
		}
		return nil, err
	}

	var reminders []Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		s.logger.Warn("Discarding unparseable reminders", zap.String("key", s.key), zap.Error(err))
		return []Reminder{}, nil
	}
	if reminders == nil {
		reminders = []Reminder{}
	}
	return reminders, nil
}

// Save overwrites the persisted collection with reminders. It reports
// whether the write went through; failures are logged, never returned.
func (s *Store) Save(reminders []Reminder) bool {
	if reminders == nil {
		reminders = []Reminder{}
	}
	data, err := json.Marshal(reminders)
	if err != nil {
		s.logger.Error("Failed to encode reminders", zap.Error(err))
		return false
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.logger.Error("Failed to save reminders", zap.String("key", s.key), zap.Error(err))
		return false
	}
	return true
}
