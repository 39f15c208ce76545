package storage

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/pokebinder/pokebinder/internal/metrics"
	"github.com/pokebinder/pokebinder/internal/models"
)

// Legacy unversioned keys from earlier releases. Each is converted to
// the current schema on first open and then deleted.
var legacyKeys = []string{
	"pokemonCards",
	"pokemon_collection",
	"pokemon_tracker_settings",
}

// migrateLegacy runs the one-time legacy key migration. A failure for
// one key must not block the others or abort initialization.
func (s *Store) migrateLegacy() {
	for _, key := range legacyKeys {
		migrated, err := s.migrateKey(key)
		if err != nil {
			metrics.StorageMigrationsTotal.WithLabelValues("failed").Inc()
			log.Printf("storage: failed to migrate legacy key %q: %v", key, err)
			continue
		}
		if migrated {
			metrics.StorageMigrationsTotal.WithLabelValues("migrated").Inc()
			log.Printf("storage: migrated data from legacy key %q", key)
		}
	}
}

func (s *Store) migrateKey(key string) (bool, error) {
	var e Entry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch key {
	case "pokemonCards":
		// Oldest format: a bare card array.
		var cards []models.Card
		if err := json.Unmarshal([]byte(e.Value), &cards); err != nil {
			return false, err
		}
		if err := s.adoptLegacyCards(cards); err != nil {
			return false, err
		}

	case "pokemon_collection":
		// Unversioned collection object.
		var col models.Collection
		if err := json.Unmarshal([]byte(e.Value), &col); err != nil {
			return false, err
		}
		if err := s.adoptLegacyCards(col.Cards); err != nil {
			return false, err
		}

	case "pokemon_tracker_settings":
		var st models.Settings
		if err := json.Unmarshal([]byte(e.Value), &st); err != nil {
			return false, err
		}
		if !s.has(settingsKey) {
			if err := s.writeJSON(settingsKey, st); err != nil {
				return false, err
			}
		}
	}

	if err := s.delete(key); err != nil {
		return false, err
	}
	return true, nil
}

// adoptLegacyCards fills fields the old schema lacked and writes the
// cards under the versioned key, unless versioned data already exists.
func (s *Store) adoptLegacyCards(cards []models.Card) error {
	if s.has(collectionKey) {
		return nil
	}

	now := time.Now()
	for i := range cards {
		if cards[i].Quantity < 1 {
			cards[i].Quantity = 1
		}
		if cards[i].AddedDate.IsZero() {
			cards[i].AddedDate = now
		}
		if cards[i].Condition == "" {
			cards[i].Condition = models.ConditionNearMint
		}
		if cards[i].Language == "" {
			cards[i].Language = models.DefaultLanguage
		}
	}
	return s.SaveCollection(cards)
}
