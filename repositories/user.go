//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"time"

	"talkify/domain"
	"talkify/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	Create(user domain.User) error
	Get(username string) (domain.User, error)
	GetOrCreate(username string) (domain.User, error)
	SetOnline(username string) error
	SetOffline(username string, lastSeen time.Time) error
	List() ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// Create persists a registered user. It fails when the username is taken,
// including by a lazily created record.
func (u UserRepository) Create(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.Username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
}

func (u UserRepository) Get(username string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, err
}

// GetOrCreate returns the user for a username, creating an offline record on
// first reference. Presence is the only writer of the online flag.
func (u UserRepository) GetOrCreate(username string) (domain.User, error) {
	var user domain.User
	err := u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			})
		}
		if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		user = domain.NewUser(username)
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return user, err
}

func (u UserRepository) SetOnline(username string) error {
	return u.mutate(username, func(user *domain.User) {
		user.Online = true
	})
}

func (u UserRepository) SetOffline(username string, lastSeen time.Time) error {
	return u.mutate(username, func(user *domain.User) {
		user.Online = false
		user.LastSeen = &lastSeen
	})
}

func (u UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

func (u UserRepository) mutate(username string, apply func(*domain.User)) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}
		apply(&user)
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	return err
}
