// Package export renders the collection for the outside world: CSV for
// spreadsheets, a JSON bundle for backup/restore, and a printable HTML
// summary.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/pokebinder/pokebinder/internal/models"
	"github.com/pokebinder/pokebinder/internal/stats"
)

// Bundle is the full backup document. Collection and Settings are
// pointers so a missing section is distinguishable from an empty one
// during import validation.
type Bundle struct {
	Collection    *models.Collection   `json:"collection"`
	Settings      *models.Settings     `json:"settings"`
	SearchHistory []models.SearchEntry `json:"searchHistory"`
	Metadata      Metadata             `json:"metadata"`
}

// Metadata describes when and by what a bundle was written.
type Metadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
	App        string    `json:"app"`
}

var csvHeader = []string{
	"Name", "Set", "Number", "Rarity", "Quantity", "Condition",
	"Language", "Market Value", "Purchase Price", "Purchase Date",
	"Notes", "Card ID",
}

// WriteCSV writes the collection as CSV with a fixed column order.
func WriteCSV(w io.Writer, cards []models.Card) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range cards {
		c := &cards[i]
		value := c.ResolvedValue()
		if value == 0 {
			value = c.EstimatedValue
		}
		row := []string{
			c.Name,
			c.SetName,
			c.Number,
			c.Rarity,
			strconv.Itoa(c.Quantity),
			string(c.Condition),
			c.Language,
			formatMoney(value),
			formatMoney(c.PurchasePrice),
			c.PurchaseDate,
			c.Notes,
			c.ID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteBundle writes the backup bundle as indented JSON.
func WriteBundle(w io.Writer, col models.Collection, settings models.Settings, history []models.SearchEntry, version string) error {
	if history == nil {
		history = []models.SearchEntry{}
	}
	bundle := Bundle{
		Collection:    &col,
		Settings:      &settings,
		SearchHistory: history,
		Metadata: Metadata{
			ExportedAt: time.Now(),
			Version:    version,
			App:        "pokebinder",
		},
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ParseBundle decodes and validates a backup bundle. Validation is
// complete before the caller touches any storage, so a bad bundle never
// results in a partial import.
func ParseBundle(r io.Reader) (*Bundle, error) {
	var bundle Bundle
	dec := json.NewDecoder(r)
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("invalid bundle JSON: %w", err)
	}

	if bundle.Collection == nil {
		return nil, fmt.Errorf("bundle is missing the collection section")
	}
	if bundle.Settings == nil {
		return nil, fmt.Errorf("bundle is missing the settings section")
	}
	if bundle.Collection.Cards == nil {
		bundle.Collection.Cards = []models.Card{}
	}
	for i := range bundle.Collection.Cards {
		c := &bundle.Collection.Cards[i]
		if c.Name == "" {
			return nil, fmt.Errorf("bundle card %d has no name", i)
		}
		if c.Quantity < 0 {
			return nil, fmt.Errorf("bundle card %q has negative quantity", c.Name)
		}
	}
	if bundle.SearchHistory == nil {
		bundle.SearchHistory = []models.SearchEntry{}
	}
	return &bundle, nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type htmlGroup struct {
	Name     string
	Variants []models.Card
}

type htmlData struct {
	GeneratedAt string
	Stats       stats.Statistics
	Groups      []htmlGroup
}

// WriteHTML writes a printable summary page: overall totals followed by
// the cards grouped by name with their per-set variants.
func WriteHTML(w io.Writer, cards []models.Card) error {
	order := []string{}
	groups := map[string][]models.Card{}
	for i := range cards {
		name := cards[i].Name
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], cards[i])
	}

	data := htmlData{
		GeneratedAt: time.Now().Format("January 2, 2006 15:04"),
		Stats:       stats.Compute(cards),
	}
	for _, name := range order {
		data.Groups = append(data.Groups, htmlGroup{Name: name, Variants: groups[name]})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render HTML export: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var htmlTemplate = template.Must(template.New("export").Funcs(template.FuncMap{
	"money": formatMoney,
	"cardValue": func(c models.Card) float64 {
		if v := c.ResolvedValue(); v > 0 {
			return v
		}
		return c.EstimatedValue
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Card Collection</title>
<style>
body { font-family: Georgia, serif; margin: 2em; color: #222; }
h1 { border-bottom: 2px solid #222; padding-bottom: 0.3em; }
.summary { display: flex; gap: 2em; margin: 1em 0 2em; }
.summary div { text-align: center; }
.summary .num { font-size: 1.6em; font-weight: bold; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5em; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
th { background: #eee; }
h2 { margin-bottom: 0.2em; }
@media print { body { margin: 0.5em; } }
</style>
</head>
<body>
<h1>Card Collection</h1>
<p>Generated {{.GeneratedAt}}</p>
<div class="summary">
  <div><div class="num">{{.Stats.TotalCards}}</div>Total Cards</div>
  <div><div class="num">{{.Stats.UniqueCards}}</div>Unique Cards</div>
  <div><div class="num">${{money .Stats.TotalValue}}</div>Total Value</div>
</div>
{{range .Groups}}
<h2>{{.Name}}</h2>
<table>
<tr><th>Set</th><th>Number</th><th>Rarity</th><th>Qty</th><th>Condition</th><th>Value</th></tr>
{{range .Variants}}
<tr>
  <td>{{.SetName}}</td>
  <td>{{.Number}}</td>
  <td>{{.Rarity}}</td>
  <td>{{.Quantity}}</td>
  <td>{{.Condition}}</td>
  <td>${{money (cardValue .)}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))
