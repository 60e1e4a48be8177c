package render

import "github.com/gdamore/tcell/v2"

// Glyphs maps arena objects to screen glyphs.
type Glyphs struct {
	Tank     map[string]string // by FSM state name
	Player   string
	Bullet   string
	Waypoint string
	Border   string
}

// ASCIIGlyphs draws every tank state as its initial letter.
var ASCIIGlyphs = Glyphs{
	Tank: map[string]string{
		"PATROL": "P",
		"CHASE":  "C",
		"ATTACK": "A",
		"FLEE":   "F",
		"EVADE":  "E",
		"DEAD":   "X",
		"NONE":   "?",
	},
	Player:   "@",
	Bullet:   "*",
	Waypoint: "+",
	Border:   "#",
}

// EmojiGlyphs needs a terminal with wide-glyph support.
var EmojiGlyphs = Glyphs{
	Tank: map[string]string{
		"PATROL": "🚙",
		"CHASE":  "🚓",
		"ATTACK": "💥",
		"FLEE":   "💨",
		"EVADE":  "🔀",
		"DEAD":   "💀",
		"NONE":   "❔",
	},
	Player:   "🧍",
	Bullet:   "•",
	Waypoint: "📍",
	Border:   "░",
}

var stateColors = map[string]tcell.Color{
	"PATROL": tcell.ColorGreen,
	"CHASE":  tcell.ColorYellow,
	"ATTACK": tcell.ColorRed,
	"FLEE":   tcell.ColorFuchsia,
	"EVADE":  tcell.ColorAqua,
	"DEAD":   tcell.ColorGray,
}

func (g Glyphs) tank(state string) string {
	if s, ok := g.Tank[state]; ok {
		return s
	}
	return "?"
}

func stateStyle(state string) tcell.Style {
	c, ok := stateColors[state]
	if !ok {
		c = tcell.ColorWhite
	}
	return tcell.StyleDefault.Foreground(c).Background(tcell.ColorBlack)
}
