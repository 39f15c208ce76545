package models

import (
	"time"
)

// Settings is the user configuration stored alongside the collection.
type Settings struct {
	Theme         string    `json:"theme"`
	Currency      string    `json:"currency"`
	ShowPrices    bool      `json:"showPrices"`
	ShowImages    bool      `json:"showImages"`
	AutoSave      bool      `json:"autoSave"`
	CacheDuration int       `json:"cacheDuration"` // hours
	APILimit      int       `json:"apiLimit"`      // search page size
	LastUpdated   time.Time `json:"lastUpdated"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Theme:         "auto",
		Currency:      "USD",
		ShowPrices:    true,
		ShowImages:    true,
		AutoSave:      true,
		CacheDuration: 24,
		APILimit:      50,
		LastUpdated:   time.Now(),
	}
}

// SettingsPatch is a partial settings update; nil fields keep their
// current value.
type SettingsPatch struct {
	Theme         *string `json:"theme"`
	Currency      *string `json:"currency"`
	ShowPrices    *bool   `json:"showPrices"`
	ShowImages    *bool   `json:"showImages"`
	AutoSave      *bool   `json:"autoSave"`
	CacheDuration *int    `json:"cacheDuration"`
	APILimit      *int    `json:"apiLimit"`
}

// Apply merges the patch into s and stamps LastUpdated.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.ShowPrices != nil {
		s.ShowPrices = *p.ShowPrices
	}
	if p.ShowImages != nil {
		s.ShowImages = *p.ShowImages
	}
	if p.AutoSave != nil {
		s.AutoSave = *p.AutoSave
	}
	if p.CacheDuration != nil {
		s.CacheDuration = *p.CacheDuration
	}
	if p.APILimit != nil {
		s.APILimit = *p.APILimit
	}
	s.LastUpdated = time.Now()
	return s
}
