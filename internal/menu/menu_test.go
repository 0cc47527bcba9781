package menu

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const exampleJSON = `{"tabs":[{"id":"t1","label":"Drinks","groups":[{"label":"Hot","items":[{"name":"Espresso","desc":"","price":"2.50"}]}]}]}`

func exampleDoc() *Document {
	return &Document{Tabs: []Tab{{
		ID:    "t1",
		Label: "Drinks",
		Groups: []Group{{
			Label: "Hot",
			Items: []Item{{Name: "Espresso", Desc: "", Price: "2.50"}},
		}},
	}}}
}

var ignoreOpen = cmpopts.IgnoreFields(Group{}, "Open")

func TestParseExample(t *testing.T) {
	doc, err := Parse([]byte(exampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(exampleDoc(), doc, ignoreOpen); diff != "" {
		t.Errorf("parsed document mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	closed := false
	original := exampleDoc()
	original.Tabs = append(original.Tabs, Tab{
		ID:    "food",
		Label: "Food",
		Title: "Kitchen",
		Groups: []Group{
			{Label: "Pasta", Open: &closed, Items: []Item{
				{Name: "Carbonara", Desc: "guanciale, **pecorino**", Price: "12"},
				{Name: "Amatriciana <hot>", Desc: "pomodoro & pepe", Price: "11,50"},
			}},
			{Label: "Empty", Items: []Item{}},
		},
	})

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !Equal(original, parsed) {
		t.Fatal("Equal reported a difference after round-trip")
	}
	if diff := cmp.Diff(original, parsed, ignoreOpen); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
	if parsed.Tabs[1].Groups[0].Open != nil {
		t.Error("open flag must not be persisted")
	}
}

func TestMarshalFormat(t *testing.T) {
	data, err := Marshal(exampleDoc())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "{\n  \"tabs\": [") {
		t.Errorf("expected two-space pretty print, got:\n%s", s)
	}
	if !strings.HasSuffix(s, "}\n") {
		t.Error("expected trailing newline")
	}
	if strings.Contains(s, "title") {
		t.Error("empty title should be omitted")
	}
	if strings.Contains(s, "open") {
		t.Error("open flag leaked into output")
	}
}

func TestMarshalEmptyUsesArrays(t *testing.T) {
	data, err := MarshalCompact(&Document{Tabs: []Tab{{ID: "x"}}})
	if err != nil {
		t.Fatalf("MarshalCompact: %v", err)
	}
	want := `{"tabs":[{"id":"x","label":"","groups":[]}]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	data, err = MarshalCompact(nil)
	if err != nil {
		t.Fatalf("MarshalCompact(nil): %v", err)
	}
	if string(data) != `{"tabs":[]}` {
		t.Errorf("nil document encoded as %s", data)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"array", `[1,2]`},
		{"string", `"menu"`},
		{"syntax", `{"tabs": [}`},
		{"wrong type", `{"tabs": "drinks"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error, got %+v", doc)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseNullTabs(t *testing.T) {
	doc, err := Parse([]byte(`{"tabs": null}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Tabs == nil || len(doc.Tabs) != 0 {
		t.Errorf("expected empty tabs slice, got %#v", doc.Tabs)
	}
}

func TestCloneIsDeep(t *testing.T) {
	open := true
	doc := exampleDoc()
	doc.Tabs[0].Groups[0].Open = &open

	c := doc.Clone()
	c.Tabs[0].Groups[0].Items[0].Price = "9.99"
	*c.Tabs[0].Groups[0].Open = false

	if doc.Tabs[0].Groups[0].Items[0].Price != "2.50" {
		t.Error("clone shares item storage with original")
	}
	if !*doc.Tabs[0].Groups[0].Open {
		t.Error("clone shares open flag with original")
	}
}

func TestEqualIgnoresOpen(t *testing.T) {
	closed := false
	a := exampleDoc()
	b := exampleDoc()
	b.Tabs[0].Groups[0].Open = &closed
	if !Equal(a, b) {
		t.Error("documents differing only in open flag should be equal")
	}
	b.Tabs[0].Groups[0].Items[0].Desc = "ristretto"
	if Equal(a, b) {
		t.Error("documents with different descriptions should differ")
	}
	if !Equal(nil, Empty()) {
		t.Error("nil and empty documents should be equal")
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		tab  Tab
		want string
	}{
		{Tab{ID: "a", Label: "B", Title: "C"}, "C"},
		{Tab{ID: "a", Label: "B"}, "B"},
		{Tab{ID: "a"}, "a"},
	}
	for _, tt := range tests {
		if got := tt.tab.DisplayTitle(); got != tt.want {
			t.Errorf("DisplayTitle(%+v) = %q, want %q", tt.tab, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	doc := exampleDoc()
	doc.Tabs[0].Groups[0].Items = append(doc.Tabs[0].Groups[0].Items,
		Item{Name: "Cappuccino", Desc: "espresso with milk", Price: "3"})

	got := doc.Find("ESPRESSO")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[1].Item != 1 || got[1].TabID != "t1" || got[1].GroupLabel != "Hot" {
		t.Errorf("unexpected match coordinates: %+v", got[1])
	}
	if doc.Find("  ") != nil {
		t.Error("blank query should match nothing")
	}
	if doc.ItemCount() != 2 {
		t.Errorf("ItemCount = %d, want 2", doc.ItemCount())
	}
	if doc.TabIndex("t1") != 0 || doc.TabIndex("nope") != -1 {
		t.Error("TabIndex lookup failed")
	}
}

func TestPrices(t *testing.T) {
	tests := []struct {
		in, normalized, formatted string
	}{
		{"2.5", "2.50", "€ 2.50"},
		{"2,5", "2.50", "€ 2.50"},
		{"€ 3", "3.00", "€ 3.00"},
		{"12", "12.00", "€ 12.00"},
		{"", "", ""},
		{"market price", "market price", "market price"},
		{"1,000.50", "1,000.50", "1,000.50"},
	}
	for _, tt := range tests {
		if got := NormalizePrice(tt.in); got != tt.normalized {
			t.Errorf("NormalizePrice(%q) = %q, want %q", tt.in, got, tt.normalized)
		}
		if got := FormatPrice(tt.in, "€"); got != tt.formatted {
			t.Errorf("FormatPrice(%q) = %q, want %q", tt.in, got, tt.formatted)
		}
	}
	if got := FormatPrice("4", ""); got != "4.00" {
		t.Errorf("FormatPrice without currency = %q", got)
	}
}

func TestMarshalYAML(t *testing.T) {
	data, err := MarshalYAML(exampleDoc())
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	s := string(data)
	for _, want := range []string{"tabs:", "id: t1", "name: Espresso", `price: "2.50"`} {
		if !strings.Contains(s, want) {
			t.Errorf("yaml output missing %q:\n%s", want, s)
		}
	}
}
