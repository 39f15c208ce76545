// Package storage persists the collection, settings, and search history
// as versioned JSON documents in a single SQLite key-value table. The
// store owns the collection: every mutating call returns the freshly
// loaded collection, which callers must adopt wholesale.
package storage

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pokebinder/pokebinder/internal/metrics"
	"github.com/pokebinder/pokebinder/internal/models"
)

// Version is embedded in storage keys. Data written under a different
// version is invisible to this code except through the one-time legacy
// migration.
const Version = "v1.0.0"

const (
	collectionKey   = "pokemon_collection_" + Version
	settingsKey     = "tracker_settings_" + Version
	historyKey      = "search_history_" + Version
	valueHistoryKey = "value_history_" + Version
)

const maxSearchHistory = 50

// ErrCardNotFound is returned by UpdateCard and RemoveCard when no
// entry matches the given id.
var ErrCardNotFound = errors.New("card not found in collection")

// Entry is one key-value row. Values are JSON documents.
type Entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path, migrates the schema and
// any legacy unversioned keys, and seeds defaults on first run.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	s.migrateLegacy()

	if !s.has(collectionKey) {
		if err := s.SaveCollection(nil); err != nil {
			return nil, err
		}
	}
	if !s.has(settingsKey) {
		if err := s.writeJSON(settingsKey, models.DefaultSettings()); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// LoadCollection returns the current collection. Missing or corrupt
// data yields an empty versioned collection with a logged warning,
// never an error.
func (s *Store) LoadCollection() models.Collection {
	var col models.Collection
	found, err := s.readJSON(collectionKey, &col)
	if err != nil {
		log.Printf("storage: corrupt collection data, resetting: %v", err)
		return emptyCollection()
	}
	if !found || col.Cards == nil {
		if found {
			log.Printf("storage: invalid collection structure, resetting")
		}
		return emptyCollection()
	}
	col.Version = Version
	return col
}

// SaveCollection writes the card list under the versioned collection
// key, recomputing the derived totals. A daily value snapshot is
// recorded as a side effect.
func (s *Store) SaveCollection(cards []models.Card) error {
	if cards == nil {
		cards = []models.Card{}
	}

	col := models.Collection{
		Cards:       cards,
		Version:     Version,
		LastUpdated: time.Now(),
		TotalCount:  len(cards),
		TotalValue:  models.TotalValueOf(cards),
	}

	if err := s.writeJSON(collectionKey, col); err != nil {
		return err
	}

	totalCards := 0
	for i := range cards {
		totalCards += cards[i].Quantity
	}
	metrics.CollectionCardsTotal.Set(float64(totalCards))
	metrics.CollectionUniqueCards.Set(float64(len(cards)))
	metrics.CollectionValueUSD.Set(col.TotalValue)

	s.recordSnapshot(totalCards, len(cards), col.TotalValue)
	return nil
}

// AddCard inserts a card into the collection, merging into an existing
// entry when the identity matches (same id, or same name/setCode/number)
// by incrementing its quantity. New entries get defaults for quantity,
// condition, language, and the added timestamp.
func (s *Store) AddCard(card models.Card) (models.Collection, error) {
	col := s.LoadCollection()

	qty := card.Quantity
	if qty < 1 {
		qty = 1
	}

	merged := false
	for i := range col.Cards {
		if col.Cards[i].SameCard(&card) {
			col.Cards[i].Quantity += qty
			merged = true
			break
		}
	}

	if !merged {
		if card.ID == "" {
			card.ID = uuid.NewString()
		}
		card.Quantity = qty
		if card.Condition == "" {
			card.Condition = models.ConditionNearMint
		}
		if card.Language == "" {
			card.Language = models.DefaultLanguage
		}
		card.AddedDate = time.Now()
		col.Cards = append(col.Cards, card)
	}

	if err := s.SaveCollection(col.Cards); err != nil {
		return col, err
	}
	return s.LoadCollection(), nil
}

// UpdateCard applies a partial update to the entry with the given id
// and stamps its lastUpdated time.
func (s *Store) UpdateCard(id string, upd models.CardUpdate) (models.Collection, error) {
	col := s.LoadCollection()

	idx := -1
	for i := range col.Cards {
		if col.Cards[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return col, ErrCardNotFound
	}

	card := &col.Cards[idx]
	if upd.Quantity != nil {
		if *upd.Quantity < 1 {
			return col, errors.New("quantity must be at least 1")
		}
		card.Quantity = *upd.Quantity
	}
	if upd.Condition != nil {
		card.Condition = *upd.Condition
	}
	if upd.Language != nil {
		card.Language = *upd.Language
	}
	if upd.Notes != nil {
		card.Notes = *upd.Notes
	}
	if upd.MarketValue != nil {
		card.MarketValue = *upd.MarketValue
	}
	if upd.PurchasePrice != nil {
		card.PurchasePrice = *upd.PurchasePrice
	}
	if upd.PurchaseDate != nil {
		card.PurchaseDate = *upd.PurchaseDate
	}
	card.LastUpdated = time.Now()

	if err := s.SaveCollection(col.Cards); err != nil {
		return col, err
	}
	return s.LoadCollection(), nil
}

// RemoveCard deletes the entry with the given id.
func (s *Store) RemoveCard(id string) (models.Collection, error) {
	col := s.LoadCollection()

	kept := col.Cards[:0]
	for i := range col.Cards {
		if col.Cards[i].ID != id {
			kept = append(kept, col.Cards[i])
		}
	}
	if len(kept) == len(col.Cards) {
		return col, ErrCardNotFound
	}

	if err := s.SaveCollection(kept); err != nil {
		return col, err
	}
	return s.LoadCollection(), nil
}

// Settings returns the stored settings, falling back to defaults on
// missing or corrupt data.
func (s *Store) Settings() models.Settings {
	var st models.Settings
	found, err := s.readJSON(settingsKey, &st)
	if err != nil {
		log.Printf("storage: corrupt settings, using defaults: %v", err)
		return models.DefaultSettings()
	}
	if !found {
		return models.DefaultSettings()
	}
	return st
}

// UpdateSettings merges the patch into the current settings and
// persists the result.
func (s *Store) UpdateSettings(patch models.SettingsPatch) (models.Settings, error) {
	merged := patch.Apply(s.Settings())
	if err := s.writeJSON(settingsKey, merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// ReplaceSettings overwrites the stored settings wholesale. Used by
// bundle import.
func (s *Store) ReplaceSettings(st models.Settings) error {
	st.LastUpdated = time.Now()
	return s.writeJSON(settingsKey, st)
}

// SearchHistory returns remembered search terms, newest first.
func (s *Store) SearchHistory() []models.SearchEntry {
	var history []models.SearchEntry
	found, err := s.readJSON(historyKey, &history)
	if err != nil {
		log.Printf("storage: corrupt search history, resetting: %v", err)
		return []models.SearchEntry{}
	}
	if !found || history == nil {
		return []models.SearchEntry{}
	}
	return history
}

// AddSearchTerm records a search term at the head of the history,
// removing any earlier occurrence and trimming to the cap. Failures are
// logged and the prior history returned; search must not break because
// bookkeeping did.
func (s *Store) AddSearchTerm(term string) []models.SearchEntry {
	history := s.SearchHistory()

	updated := make([]models.SearchEntry, 0, len(history)+1)
	updated = append(updated, models.SearchEntry{Term: term, Timestamp: time.Now()})
	for _, e := range history {
		if e.Term != term {
			updated = append(updated, e)
		}
	}
	if len(updated) > maxSearchHistory {
		updated = updated[:maxSearchHistory]
	}

	if err := s.writeJSON(historyKey, updated); err != nil {
		log.Printf("storage: failed to update search history: %v", err)
		return history
	}
	return updated
}

// ClearSearchHistory removes the history key.
func (s *Store) ClearSearchHistory() error {
	return s.delete(historyKey)
}

// ReplaceSearchHistory overwrites the stored history wholesale. Used by
// bundle import.
func (s *Store) ReplaceSearchHistory(history []models.SearchEntry) error {
	if history == nil {
		history = []models.SearchEntry{}
	}
	if len(history) > maxSearchHistory {
		history = history[:maxSearchHistory]
	}
	return s.writeJSON(historyKey, history)
}

// ValueHistory returns the recorded daily value snapshots, oldest first.
func (s *Store) ValueHistory() []models.ValueSnapshot {
	var history []models.ValueSnapshot
	found, err := s.readJSON(valueHistoryKey, &history)
	if err != nil || !found || history == nil {
		return []models.ValueSnapshot{}
	}
	return history
}

// recordSnapshot appends (or updates) today's value snapshot. Best
// effort: a failed snapshot write never fails the collection save.
func (s *Store) recordSnapshot(totalCards, uniqueCards int, totalValue float64) {
	today := time.Now().Format("2006-01-02")
	snap := models.ValueSnapshot{
		Date:        today,
		TotalCards:  totalCards,
		UniqueCards: uniqueCards,
		TotalValue:  totalValue,
	}

	history := s.ValueHistory()
	if n := len(history); n > 0 && history[n-1].Date == today {
		history[n-1] = snap
	} else {
		history = append(history, snap)
	}

	if err := s.writeJSON(valueHistoryKey, history); err != nil {
		log.Printf("storage: failed to record value snapshot: %v", err)
	}
}

func emptyCollection() models.Collection {
	return models.Collection{Cards: []models.Card{}, Version: Version}
}

func (s *Store) has(key string) bool {
	var count int64
	s.db.Model(&Entry{}).Where("key = ?", key).Count(&count)
	return count > 0
}

// readJSON loads and unmarshals the value under key. The bool reports
// whether the key existed; an error means the value did not parse.
func (s *Store) readJSON(key string, dest any) (bool, error) {
	var e Entry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(e.Value), dest); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) writeJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	e := Entry{Key: key, Value: string(data), UpdatedAt: time.Now()}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return err
	}

	metrics.StorageWritesTotal.Inc()
	return nil
}

func (s *Store) delete(key string) error {
	return s.db.Delete(&Entry{}, "key = ?", key).Error
}
