package database

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	UsersBucket         = []byte("Users")
	UsernamesBucket     = []byte("Usernames") // username -> user id
	AssignmentsBucket   = []byte("Assignments")
	NotificationsBucket = []byte("Notifications") // userId:eventId -> notification
)

// OpenBolt opens (or creates) the database file at path and makes sure every
// bucket exists.
func OpenBolt(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", path)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt database %s", path)
	}
	if err := EnsureBoltBuckets(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("INFO: bolt database ready at", path)
	return db, nil
}

func EnsureBoltBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{UsersBucket, UsernamesBucket, AssignmentsBucket, NotificationsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "creating bucket %s", bucket)
			}
		}
		return nil
	})
}

func CloseBolt(db *bbolt.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Printf("ERROR: closing bolt database: %v", err)
		return
	}
	log.Println("INFO: bolt database closed.")
}
