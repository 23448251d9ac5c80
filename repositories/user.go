package repositories

import (
	"encoding/json"
	goerrors "errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"heartline/domain"
)

// UserRepository is the narrow slice of the profile store this core consults:
// recipient resolution and the first name used in notifications.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

func (r UserRepository) Save(record domain.UserRecord) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(record.Username), bytes)
	})
}

// FindByUsername resolves a profile. Absence is a valid state, not an error.
func (r UserRepository) FindByUsername(username string) (domain.UserRecord, bool, error) {
	var record domain.UserRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &record)
		})
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.UserRecord{}, false, nil
	}
	if err != nil {
		return domain.UserRecord{}, false, err
	}
	return record, true, nil
}
