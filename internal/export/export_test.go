package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/pokebinder/pokebinder/internal/models"
)

func sampleCards() []models.Card {
	return []models.Card{
		{ID: "base1-58", Name: "Pikachu", SetName: "Base", Number: "58", Rarity: "Common",
			Quantity: 3, Condition: models.ConditionNearMint, Language: "English",
			MarketValue: 2, PurchasePrice: 1.5,
			PurchaseDate: "2024-06-01",
			Notes:        "first pull"},
		{ID: "base1-4", Name: "Charizard", SetName: "Base", Number: "4", Rarity: "Rare Holo",
			Quantity: 1, Condition: models.ConditionExcellent, Language: "English",
			MarketValue: 350},
	}
}

func TestWriteCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleCards()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	wantHeader := []string{
		"Name", "Set", "Number", "Rarity", "Quantity", "Condition",
		"Language", "Market Value", "Purchase Price", "Purchase Date",
		"Notes", "Card ID",
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	row := records[1]
	if row[0] != "Pikachu" || row[4] != "3" || row[7] != "2.00" || row[9] != "2024-06-01" || row[11] != "base1-58" {
		t.Errorf("unexpected row: %v", row)
	}

	// Zero purchase date renders empty.
	if records[2][9] != "" {
		t.Errorf("zero purchase date should be empty, got %q", records[2][9])
	}
}

func TestWriteCSVEstimateFallback(t *testing.T) {
	var buf bytes.Buffer
	cards := []models.Card{{Name: "Promo", Quantity: 1, EstimatedValue: 0.75}}
	if err := WriteCSV(&buf, cards); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if records[1][7] != "0.75" {
		t.Errorf("unpriced card should export its estimate, got %q", records[1][7])
	}
}

func TestBundleRoundTrip(t *testing.T) {
	col := models.Collection{
		Cards: sampleCards(), Version: "v1.0.0",
		TotalCount: 2, TotalValue: 356,
	}
	settings := models.DefaultSettings()
	settings.Theme = "dark"
	history := []models.SearchEntry{{Term: "pikachu", Timestamp: time.Now()}}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, col, settings, history, "v1.0.0"); err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}

	bundle, err := ParseBundle(&buf)
	if err != nil {
		t.Fatalf("ParseBundle failed: %v", err)
	}

	if len(bundle.Collection.Cards) != 2 {
		t.Errorf("cards = %d, want 2", len(bundle.Collection.Cards))
	}
	if bundle.Collection.Cards[0].Name != "Pikachu" {
		t.Errorf("first card = %q", bundle.Collection.Cards[0].Name)
	}
	if bundle.Settings.Theme != "dark" {
		t.Errorf("settings theme = %q", bundle.Settings.Theme)
	}
	if len(bundle.SearchHistory) != 1 || bundle.SearchHistory[0].Term != "pikachu" {
		t.Errorf("history = %+v", bundle.SearchHistory)
	}
	if bundle.Metadata.App != "pokebinder" || bundle.Metadata.ExportedAt.IsZero() {
		t.Errorf("metadata = %+v", bundle.Metadata)
	}
}

func TestParseBundleValidation(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", `{broken`},
		{"missing collection", `{"settings": {}}`},
		{"missing settings", `{"collection": {"cards": []}}`},
		{"nameless card", `{"collection": {"cards": [{"id": "x"}]}, "settings": {}}`},
		{"negative quantity", `{"collection": {"cards": [{"name": "Pikachu", "quantity": -1}]}, "settings": {}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseBundle(strings.NewReader(tc.input)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseBundleFillsOptionalSections(t *testing.T) {
	input := `{"collection": {"cards": null}, "settings": {"theme": "auto"}}`
	bundle, err := ParseBundle(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBundle failed: %v", err)
	}
	if bundle.Collection.Cards == nil {
		t.Error("nil cards should become an empty slice")
	}
	if bundle.SearchHistory == nil {
		t.Error("nil history should become an empty slice")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	cards := append(sampleCards(), models.Card{
		ID: "swsh4-44", Name: "Pikachu", SetName: "Vivid Voltage", Number: "44",
		Rarity: "Common", Quantity: 1, Condition: models.ConditionMint, MarketValue: 0.5,
	})
	if err := WriteHTML(&buf, cards); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<h2>Pikachu</h2>", "<h2>Charizard</h2>",
		"Vivid Voltage", "$350.00", "Total Cards",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML export missing %q", want)
		}
	}

	// Two Pikachu variants share one group heading.
	if strings.Count(out, "<h2>Pikachu</h2>") != 1 {
		t.Error("variants of the same name should share one group")
	}
}
