// Package menu builds the bot's keyboards. Builders are pure functions
// over the catalog; they know nothing about Telegram transport types.
package menu

import (
	"strings"

	"github.com/mrhouse-klg/housebot/core/catalog"
)

// Main menu button labels. These are the exact strings Telegram echoes
// back as message text when a reply-keyboard button is pressed.
const (
	LabelLocations = "📍 Наши локации"
	LabelProjects  = "🏗️ Проекты и цены"
	LabelPrice     = "💰 Стоимость строительства"
	LabelQuestion  = "❓ Задать вопрос"
	LabelManager   = "📞 Связаться с менеджером"

	LabelBackToMenu = "🏠 Главное меню"
	LabelBackToList = "⬅️ Назад к списку"
	LabelPresent    = "📄 Смотреть презентацию"
	LabelOpenImage  = "🖼 Открыть фото"
)

// Callback action identifiers carried in inline button data.
const (
	ActionBackToMenu   = "back_to_menu"
	ActionBackToList   = "back_to_list"
	actionSelectPrefix = "select:"
)

// SelectAction encodes a catalog entry selection.
func SelectAction(name string) string {
	return actionSelectPrefix + name
}

// ParseSelect extracts the entry name from a select action.
func ParseSelect(action string) (string, bool) {
	if !strings.HasPrefix(action, actionSelectPrefix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(action, actionSelectPrefix))
	if name == "" {
		return "", false
	}
	return name, true
}

// Button is a single selectable element. Exactly one of Action or URL is
// set for inline buttons; reply-keyboard buttons carry only the label.
type Button struct {
	Label  string
	Action string
	URL    string
}

// Grid is a keyboard layout. Reply distinguishes persistent
// reply keyboards from inline keyboards attached to a message.
type Grid struct {
	Rows  [][]Button
	Reply bool
}

// Empty reports whether the grid has no buttons at all.
func (g Grid) Empty() bool {
	for _, row := range g.Rows {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Buttons returns the grid flattened in row order.
func (g Grid) Buttons() []Button {
	var out []Button
	for _, row := range g.Rows {
		out = append(out, row...)
	}
	return out
}

// Main returns the fixed five-button reply keyboard of the root menu.
func Main() Grid {
	return Grid{
		Reply: true,
		Rows: [][]Button{
			{{Label: LabelLocations}, {Label: LabelProjects}},
			{{Label: LabelPrice}, {Label: LabelQuestion}},
			{{Label: LabelManager}},
		},
	}
}

// List returns the inline keyboard for a catalog listing: one button per
// entry in declaration order, plus a trailing back-to-menu button. An
// empty catalog yields only the back button.
func List(c *catalog.Catalog, kind catalog.Kind) Grid {
	entries := c.Entries(kind)
	rows := make([][]Button, 0, len(entries)+1)
	for _, e := range entries {
		rows = append(rows, []Button{{Label: e.Name, Action: SelectAction(e.Name)}})
	}
	rows = append(rows, []Button{{Label: LabelBackToMenu, Action: ActionBackToMenu}})
	return Grid{Rows: rows}
}

// Card returns the inline keyboard attached to an entry card. The
// presentation button appears only when the entry has a document link.
func Card(e catalog.Entry) Grid {
	var rows [][]Button
	if e.Presentation != "" {
		rows = append(rows, []Button{{Label: LabelPresent, URL: e.Presentation}})
	}
	rows = append(rows, []Button{
		{Label: LabelBackToList, Action: ActionBackToList},
		{Label: LabelBackToMenu, Action: ActionBackToMenu},
	})
	return Grid{Rows: rows}
}

// ImageFallback returns the keyboard used when a photo send degrades to
// text: the card buttons prefixed with a direct link to the image.
func ImageFallback(e catalog.Entry) Grid {
	g := Card(e)
	if e.Image == "" {
		return g
	}
	rows := make([][]Button, 0, len(g.Rows)+1)
	rows = append(rows, []Button{{Label: LabelOpenImage, URL: e.Image}})
	rows = append(rows, g.Rows...)
	return Grid{Rows: rows}
}
