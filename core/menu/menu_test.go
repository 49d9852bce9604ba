package menu

import (
	"strings"
	"testing"

	"github.com/mrhouse-klg/housebot/core/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestMainMenuHasFiveButtons(t *testing.T) {
	g := Main()
	if !g.Reply {
		t.Fatal("main menu must be a reply keyboard")
	}
	buttons := g.Buttons()
	if len(buttons) != 5 {
		t.Fatalf("got %d buttons, want 5", len(buttons))
	}
	labels := map[string]bool{}
	for _, b := range buttons {
		labels[b.Label] = true
		if b.Action != "" || b.URL != "" {
			t.Fatalf("reply button %q must not carry action/url", b.Label)
		}
	}
	for _, want := range []string{LabelLocations, LabelProjects, LabelPrice, LabelQuestion, LabelManager} {
		if !labels[want] {
			t.Fatalf("missing button %q", want)
		}
	}
}

func TestListMenuSizeAndOrder(t *testing.T) {
	c := testCatalog(t)
	g := List(c, catalog.Locations)
	entries := c.Entries(catalog.Locations)

	buttons := g.Buttons()
	if len(buttons) != len(entries)+1 {
		t.Fatalf("got %d buttons, want %d entries + back", len(buttons), len(entries))
	}
	for i, e := range entries {
		if buttons[i].Label != e.Name {
			t.Fatalf("button %d = %q, want %q (declaration order)", i, buttons[i].Label, e.Name)
		}
		if buttons[i].Action != SelectAction(e.Name) {
			t.Fatalf("button %d action = %q", i, buttons[i].Action)
		}
	}
	last := buttons[len(buttons)-1]
	if last.Action != ActionBackToMenu {
		t.Fatalf("trailing button action = %q, want back_to_menu", last.Action)
	}
}

func TestListRoundTripsThroughCatalog(t *testing.T) {
	c := testCatalog(t)
	for _, kind := range []catalog.Kind{catalog.Locations, catalog.Projects} {
		for _, b := range List(c, kind).Buttons() {
			name, ok := ParseSelect(b.Action)
			if !ok {
				continue // back button
			}
			e, found := c.Lookup(kind, name)
			if !found {
				t.Fatalf("list button %q does not resolve in catalog %s", name, kind)
			}
			if !strings.Contains(e.Caption, e.Name) {
				t.Fatalf("card caption for %q does not mention the name", e.Name)
			}
		}
	}
}

func TestCardButtons(t *testing.T) {
	withDoc := catalog.Entry{Name: "X", Presentation: "https://example.com/x.pdf"}
	g := Card(withDoc)
	buttons := g.Buttons()
	if len(buttons) != 3 {
		t.Fatalf("got %d buttons, want presentation + 2 nav", len(buttons))
	}
	if buttons[0].URL != withDoc.Presentation {
		t.Fatalf("first button url = %q", buttons[0].URL)
	}

	withoutDoc := catalog.Entry{Name: "Y"}
	buttons = Card(withoutDoc).Buttons()
	if len(buttons) != 2 {
		t.Fatalf("got %d buttons, want only nav", len(buttons))
	}
	if buttons[0].Action != ActionBackToList || buttons[1].Action != ActionBackToMenu {
		t.Fatalf("nav actions = %q, %q", buttons[0].Action, buttons[1].Action)
	}
}

func TestImageFallbackPrefixesLink(t *testing.T) {
	e := catalog.Entry{Name: "Z", Image: "https://example.com/z.jpg"}
	buttons := ImageFallback(e).Buttons()
	if buttons[0].URL != e.Image || buttons[0].Label != LabelOpenImage {
		t.Fatalf("first fallback button = %+v", buttons[0])
	}
}

func TestParseSelect(t *testing.T) {
	if name, ok := ParseSelect(SelectAction("Шопино")); !ok || name != "Шопино" {
		t.Fatalf("round trip failed: %q %v", name, ok)
	}
	if _, ok := ParseSelect("back_to_menu"); ok {
		t.Fatal("back_to_menu is not a selection")
	}
	if _, ok := ParseSelect("select:"); ok {
		t.Fatal("empty selection must not parse")
	}
}

func TestEmptyCatalogStillHasBackButton(t *testing.T) {
	c, err := catalog.Parse([]byte("locations: []\nprojects: []"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := List(c, catalog.Locations)
	buttons := g.Buttons()
	if len(buttons) != 1 || buttons[0].Action != ActionBackToMenu {
		t.Fatalf("expected lone back button, got %+v", buttons)
	}
}
