package crate_simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	bucket          = "crate_simulator"
	defaultSlots    = 16
	defaultChannels = 24
	defaultLoad     = 100 // MOhm
	defaultSVMax    = 4000
	defaultI0Set    = 100 // uA
	defaultRamp     = 50  // V/s

	crateConfigKey = "crate_config"
)

type CrateConfig struct {
	Slots    uint16  `json:"slots"`
	Channels uint16  `json:"channels"` // per slot
	LoadMOhm float32 `json:"load_mohm"`
}

// ChannelState is the persisted state of one simulated channel. VMon is the
// value at Updated; the simulator advances it lazily on every access.
type ChannelState struct {
	V0Set   float32   `json:"v0set"`
	I0Set   float32   `json:"i0set"`
	RUp     float32   `json:"rup"`
	RDWn    float32   `json:"rdwn"`
	SVMax   float32   `json:"svmax"`
	Pw      uint16    `json:"pw"`
	PDwn    uint16    `json:"pdwn"`
	VMon    float32   `json:"vmon"`
	Updated time.Time `json:"updated"`
}

func defaultChannel(now time.Time) ChannelState {
	return ChannelState{
		I0Set:   defaultI0Set,
		RUp:     defaultRamp,
		RDWn:    defaultRamp,
		SVMax:   defaultSVMax,
		PDwn:    1,
		Updated: now,
	}
}

var errNotFound = errors.New("not found")

type store struct {
	db *bolt.DB
}

func NewStore(db *bolt.DB) (*store, error) {
	st := store{db: db}

	if err := st.setDefaults(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *store) setDefaults() error {
	if _, err := s.GetCrateConfig(); err != nil {
		log.Debugf("Setting default crate config")
		return s.SetCrateConfig(CrateConfig{
			Slots:    defaultSlots,
			Channels: defaultChannels,
			LoadMOhm: defaultLoad,
		})
	}
	return nil
}

// SetCrateConfig saves the crate geometry as a json string in the database.
func (s *store) SetCrateConfig(cfg CrateConfig) error {
	if cfg.Slots == 0 || cfg.Channels == 0 {
		return fmt.Errorf("crate needs at least one slot and one channel")
	}
	if cfg.LoadMOhm <= 0 {
		return fmt.Errorf("load must be positive: %v", cfg.LoadMOhm)
	}
	return s.put(crateConfigKey, cfg)
}

func (s *store) GetCrateConfig() (CrateConfig, error) {
	var cfg CrateConfig
	err := s.get(crateConfigKey, &cfg)
	return cfg, err
}

// GetSlot returns the channel states of a slot; channels never written
// come back with defaults.
func (s *store) GetSlot(slot, channels uint16, now time.Time) ([]ChannelState, error) {
	var states []ChannelState
	if err := s.get(slotKey(slot), &states); err != nil && !errors.Is(err, errNotFound) {
		return nil, err
	}
	for len(states) < int(channels) {
		states = append(states, defaultChannel(now))
	}
	return states, nil
}

func (s *store) SetSlot(slot uint16, states []ChannelState) error {
	return s.put(slotKey(slot), states)
}

func slotKey(slot uint16) string {
	return fmt.Sprintf("slot_%02d", slot)
}

func (s *store) put(key string, v any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}

		value, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *store) get(key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s: %w", bucket, errNotFound)
		}

		value := b.Get([]byte(key))
		if value == nil {
			return fmt.Errorf("key %s: %w", key, errNotFound)
		}

		return json.Unmarshal(value, v)
	})
}
