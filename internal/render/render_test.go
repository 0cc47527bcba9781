package render

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

func testMenu() *menu.Document {
	return &menu.Document{Tabs: []menu.Tab{
		{ID: "drinks", Label: "Drinks", Title: "Da bere", Groups: []menu.Group{
			{Label: "Hot", Items: []menu.Item{
				{Name: "Espresso", Desc: "short", Price: "2.5"},
				{Name: "Cappuccino", Desc: "", Price: "market"},
			}},
		}},
		{ID: "food", Label: "Food", Groups: []menu.Group{
			{Label: "Pasta", Items: []menu.Item{{Name: "Carbonara", Price: "12"}}},
		}},
	}}
}

func TestStorefrontStructure(t *testing.T) {
	n := Storefront(testMenu(), Options{})

	tabs := FindAll(n, "menu-tab")
	require.Len(t, tabs, 2)
	assert.Equal(t, "drinks", Attr(tabs[0], "data-target"))
	assert.Equal(t, "true", Attr(tabs[0], "aria-selected"))
	assert.Equal(t, "false", Attr(tabs[1], "aria-selected"))
	assert.Contains(t, Attr(tabs[0], "class"), "active")
	assert.NotContains(t, Attr(tabs[1], "class"), "active")

	cards := FindAll(n, "menu-card")
	require.Len(t, cards, 2)
	assert.Equal(t, "food", Attr(cards[1], "id"))
	assert.Equal(t, "tabpanel", Attr(cards[1], "role"))

	titles := FindAll(n, "menu-card-title-main")
	assert.Equal(t, "Da bere", TextContent(titles[0]))
	assert.Equal(t, "", TextContent(titles[1]))

	items := FindAll(n, "menu-item")
	require.Len(t, items, 3)
	assert.Equal(t, "Espresso", TextContent(FindAll(items[0], "menu-item-name")[0]))
	assert.Equal(t, "short", TextContent(FindAll(items[0], "menu-item-desc")[0]))
	assert.Equal(t, "2.5", TextContent(FindAll(items[0], "menu-item-price")[0]))
	assert.Equal(t, "h2", FindAll(items[0], "menu-item-name")[0].Data)
}

func TestStorefrontEscapesText(t *testing.T) {
	doc := &menu.Document{Tabs: []menu.Tab{{ID: "x", Label: "<b>Tab</b>", Groups: []menu.Group{
		{Label: "G", Items: []menu.Item{{Name: "<script>alert(1)</script>"}}},
	}}}}
	out := String(Storefront(doc, Options{}))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&lt;b&gt;Tab&lt;/b&gt;")
}

func TestCurrencyFormatting(t *testing.T) {
	n := Storefront(testMenu(), Options{Currency: "€"})
	prices := FindAll(n, "menu-item-price")
	require.Len(t, prices, 3)
	assert.Equal(t, "€ 2.50", TextContent(prices[0]))
	assert.Equal(t, "market", TextContent(prices[1]))
	assert.Equal(t, "€ 12.00", TextContent(prices[2]))
}

func TestMarkdownDescriptions(t *testing.T) {
	doc := &menu.Document{Tabs: []menu.Tab{{ID: "x", Label: "X", Groups: []menu.Group{
		{Label: "G", Items: []menu.Item{
			{Name: "a", Desc: "**guanciale** e _pecorino_"},
			{Name: "b", Desc: "safe <script>alert(1)</script>"},
		}},
	}}}}

	plain := String(Storefront(doc, Options{}))
	assert.Contains(t, plain, "**guanciale**")

	out := String(Storefront(doc, Options{Markdown: true}))
	assert.Contains(t, out, `<p class="menu-item-desc"><strong>guanciale</strong> e <em>pecorino</em></p>`)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<p><strong>", "paragraphs are unwrapped")
}

func TestPreviewHeading(t *testing.T) {
	doc := testMenu()
	doc.Tabs = append(doc.Tabs, menu.Tab{ID: "only-id", Groups: []menu.Group{}})
	n := Preview(doc, Options{})

	heads := FindAll(n, "menu-card-title-main")
	require.Len(t, heads, 3)
	assert.Equal(t, "Da bere", TextContent(heads[0]))
	assert.Equal(t, "Food", TextContent(heads[1]))
	assert.Equal(t, "only-id", TextContent(heads[2]))
	assert.Equal(t, "h4", FindAll(n, "menu-item-name")[0].Data)
}

func TestFromJSONDegradesToEmpty(t *testing.T) {
	n, err := FromJSON([]byte("{not json"), Options{})
	var pe *menu.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Empty(t, FindAll(n, "menu-card"))

	n, err = FromJSON([]byte(`{"tabs":[{"id":"a","label":"A","groups":[]}]}`), Options{})
	require.NoError(t, err)
	assert.Len(t, FindAll(n, "menu-card"), 1)

	assert.Empty(t, FindAll(Storefront(nil, Options{}), "menu-card"))
}

func TestAdminForm(t *testing.T) {
	s := session.New(testMenu())
	require.NoError(t, s.Apply(session.Edit{Tab: 0, Field: session.FieldTabLabel, Value: "Bevande"}))

	out := String(Admin(s, AdminView{Notice: "Salvato"}))
	assert.Contains(t, out, `name="tabs.0.label" value="Bevande"`)
	assert.Contains(t, out, `name="tabs.0.groups.0.items.1.price" value="market"`)
	assert.Contains(t, out, "Bevande *")
	assert.Contains(t, out, `value="revert:0"`)
	assert.Contains(t, out, `value="add-item:0:0"`)
	assert.Contains(t, out, `value="del-item:0:0:1"`)
	assert.Contains(t, out, `action="/admin"`)
	assert.Contains(t, out, "Salvato")
	// Only the selected tab's fields are in the form.
	assert.NotContains(t, out, `name="tabs.1.label"`)
	// The preview shows the working document.
	assert.Contains(t, out, "Carbonara")
}

func TestAdminCollapsedGroupHidesItems(t *testing.T) {
	s := session.New(testMenu())
	require.NoError(t, s.ToggleGroup(0, 0))

	n := Admin(s, AdminView{})
	groups := FindAll(n, "admin-group")
	require.Len(t, groups, 1)
	assert.Contains(t, Attr(groups[0], "class"), "group-collapsed")
	assert.Empty(t, FindAll(groups[0], "admin-item"))
	assert.NotContains(t, String(n), `value="revert:0"`, "toggling is not an edit")
}

func TestAdminNewTabHasNoRevert(t *testing.T) {
	s := session.New(testMenu())
	i := s.AddTab("", "")

	out := String(Admin(s, AdminView{}))
	assert.Contains(t, out, "Nuova Categoria *")
	assert.NotContains(t, out, "revert:"+string(rune('0'+i)))
}

func TestAdminTabAddedAfterRemovalHasNoRevert(t *testing.T) {
	s := session.New(testMenu())
	last := len(s.Document().Tabs) - 1
	require.NoError(t, s.RemoveTab(0))
	i := s.AddTab("", "")
	require.Equal(t, last, i)

	out := String(Admin(s, AdminView{}))
	assert.NotContains(t, out, `value="revert:`+strconv.Itoa(i)+`"`)
}

func TestFieldNames(t *testing.T) {
	edits := []session.Edit{
		{Tab: 3, Field: session.FieldTabID},
		{Tab: 0, Field: session.FieldTabLabel},
		{Tab: 1, Field: session.FieldTabTitle},
		{Tab: 2, Group: 4, Field: session.FieldGroupLabel},
		{Tab: 0, Group: 1, Item: 7, Field: session.FieldItemName},
		{Tab: 0, Group: 1, Item: 7, Field: session.FieldItemDesc},
		{Tab: 10, Group: 0, Item: 0, Field: session.FieldItemPrice},
	}
	for _, e := range edits {
		name := FieldName(e)
		got, ok := ParseFieldName(name)
		assert.True(t, ok, name)
		assert.Equal(t, e, got, name)
	}

	assert.Equal(t, "tabs.0.groups.1.items.7.price", FieldName(session.Edit{Group: 1, Item: 7, Field: session.FieldItemPrice}))

	for _, bad := range []string{"op", "json", "tabs.x.label", "tabs.0.color", "tabs.0.groups.0.name", "tabs.0.groups.0.items.0.cost"} {
		_, ok := ParseFieldName(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("del-item:1:2:3")
	require.NoError(t, err)
	assert.Equal(t, Op{Kind: OpDelItem, Tab: 1, Group: 2, Item: 3}, op)
	assert.Equal(t, "del-item:1:2:3", op.String())

	op, err = ParseOp("save")
	require.NoError(t, err)
	assert.Equal(t, OpSave, op.Kind)

	for _, bad := range []string{"", "launch", "revert", "revert:a", "add-tab:1", "toggle:-1:0"} {
		_, err := ParseOp(bad)
		assert.Error(t, err, bad)
	}
}

func TestPage(t *testing.T) {
	n := Page("Mugo", Storefront(testMenu(), Options{}), PageOptions{
		Stylesheets: []string{"/assets/style.css"},
		Scripts:     []string{"/assets/menu.js"},
		BodyClass:   "storefront",
	})
	var b strings.Builder
	require.NoError(t, Write(&b, n))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<html lang="it">`)
	assert.Contains(t, out, "<title>Mugo</title>")
	assert.Contains(t, out, `<link rel="stylesheet" href="/assets/style.css"/>`)
	assert.Contains(t, out, `<script src="/assets/menu.js" defer=""></script>`)

	// The output parses back into the same number of cards.
	parsed, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, FindAll(parsed, "menu-card"), 2)
}
