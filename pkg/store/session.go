package store

import (
	"time"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
	. "src.solrepl.sh/pkg/store/storedefs"
)

func init() {
	initDB["initialize saved session table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSession))
		return err
	}
}

// Sessions are stored as YAML documents, so that they can be inspected with
// tools like bbolt's CLI.
type sessionDoc struct {
	Saved      time.Time `yaml:"saved"`
	Statements []string  `yaml:"statements"`
}

// SaveSession saves the statements under the given name, replacing any
// session saved under the same name.
func (s *dbStore) SaveSession(name string, stmts []string) error {
	data, err := yaml.Marshal(sessionDoc{Saved: time.Now().UTC(), Statements: stmts})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Put([]byte(name), data)
	})
}

// Session returns the statements saved under the given name.
func (s *dbStore) Session(name string) ([]string, error) {
	var doc sessionDoc
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSession)).Get([]byte(name))
		if v == nil {
			return ErrNoSession
		}
		return yaml.Unmarshal(v, &doc)
	})
	return doc.Statements, err
}

// DelSession deletes the session saved under the given name.
func (s *dbStore) DelSession(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		if b.Get([]byte(name)) == nil {
			return ErrNoSession
		}
		return b.Delete([]byte(name))
	})
}

// SessionNames returns the names of all saved sessions, sorted.
func (s *dbStore) SessionNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
