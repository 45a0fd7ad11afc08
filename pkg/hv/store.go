package hv

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	bucket        = "hvctl"
	connConfigKey = "conn_config"
)

// Store keeps the connection profile in a bbolt database.
type Store struct {
	db *bolt.DB
}

// NewStore creates a new store instance and stores the fixed default
// profile if none is present yet.
func NewStore(db *bolt.DB) (*Store, error) {
	st := Store{db: db}

	if err := st.setDefaults(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) setDefaults() error {
	if _, err := s.GetConnConfig(); err != nil {
		log.Debugf("Setting default connection profile")
		return s.SetConnConfig(DefaultConnConfig)
	}
	return nil
}

// SetConnConfig validates the profile and saves it as a json string.
func (s *Store) SetConnConfig(cfg ConnConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidArgument)
	}
	if cfg.System < SY1527 || cfg.System > R6060 {
		return fmt.Errorf("%w: invalid system: %d", ErrInvalidArgument, cfg.System)
	}
	if cfg.Link < LinkTCPIP || cfg.Link > LinkA4818 {
		return fmt.Errorf("%w: invalid link: %d", ErrInvalidArgument, cfg.Link)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}

		value, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		return b.Put([]byte(connConfigKey), value)
	})
}

// GetConnConfig retrieves the connection profile from the database.
func (s *Store) GetConnConfig() (ConnConfig, error) {
	var cfg ConnConfig

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}

		value := b.Get([]byte(connConfigKey))
		if value == nil {
			return fmt.Errorf("key %s not found", connConfigKey)
		}

		return json.Unmarshal(value, &cfg)
	})

	return cfg, err
}
