package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/udisondev/tankarena/internal/snapshot"
)

// ErrQuit is returned by Run when the user closes the viewer.
var ErrQuit = errors.New("viewer closed by user")

// hudRows is the number of rows reserved under the map.
const hudRows = 2

// SnapshotSource returns the most recent arena snapshot, nil before the
// first frame.
type SnapshotSource func() *snapshot.Snapshot

// Viewer draws a top-down view of the arena: X grows to the right, Z grows
// upward.
type Viewer struct {
	screen tcell.Screen
	source SnapshotSource
	fps    int
	glyphs Glyphs
}

// NewViewer creates a viewer on an initialized screen. The caller owns the
// screen and must Fini it.
func NewViewer(screen tcell.Screen, source SnapshotSource, fps int, glyphs Glyphs) *Viewer {
	return &Viewer{
		screen: screen,
		source: source,
		fps:    max(fps, 1),
		glyphs: glyphs,
	}
}

// Run redraws at the configured rate until ctx is canceled (nil) or the
// user presses q, Esc or Ctrl-C (ErrQuit).
func (v *Viewer) Run(ctx context.Context) error {
	quit := make(chan struct{})
	go v.pollKeys(quit)

	ticker := time.NewTicker(time.Second / time.Duration(v.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return ErrQuit
		case <-ticker.C:
			if s := v.source(); s != nil {
				v.Draw(s)
				v.screen.Show()
			}
		}
	}
}

// pollKeys closes quit on a quit key. It returns when the screen is
// finalized.
func (v *Viewer) pollKeys(quit chan<- struct{}) {
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if isQuitKey(ev) {
				close(quit)
				return
			}
		case *tcell.EventResize:
			v.screen.Sync()
		}
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// Draw renders s into the screen buffer without showing it.
func (v *Viewer) Draw(s *snapshot.Snapshot) {
	v.screen.Clear()
	w, h := v.screen.Size()
	mapH := h - hudRows
	if w < 3 || mapH < 3 {
		return
	}

	p := newProjection(s, w, mapH)

	border := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	for x := range w {
		v.putGlyph(x, 0, v.glyphs.Border, border)
		v.putGlyph(x, mapH-1, v.glyphs.Border, border)
	}
	for y := range mapH {
		v.putGlyph(0, y, v.glyphs.Border, border)
		v.putGlyph(w-1, y, v.glyphs.Border, border)
	}

	dim := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for _, wp := range s.Waypoints {
		x, y := p.toScreen(wp)
		v.putGlyph(x, y, v.glyphs.Waypoint, dim)
	}
	for _, b := range s.Bullets {
		x, y := p.toScreen(b.Position)
		v.putGlyph(x, y, v.glyphs.Bullet, tcell.StyleDefault.Foreground(tcell.ColorOrange))
	}
	if s.Player != nil {
		x, y := p.toScreen(s.Player.Position)
		v.putGlyph(x, y, v.glyphs.Player, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	}
	for _, t := range s.Tanks {
		x, y := p.toScreen(t.Position)
		v.putGlyph(x, y, v.glyphs.tank(t.State), stateStyle(t.State))
	}

	v.drawHUD(s, mapH, w)
}

func (v *Viewer) drawHUD(s *snapshot.Snapshot, top, width int) {
	header := fmt.Sprintf("frame %d  t=%.1fs  alive %d/%d  bullets %d  [q] quit",
		s.Frame, s.Time, s.Alive(), len(s.Tanks), len(s.Bullets))
	v.drawText(0, top, width, header, tcell.StyleDefault)

	x := 0
	for _, t := range s.Tanks {
		entry := fmt.Sprintf("%s %s %d  ", t.Name, t.State, t.Health)
		x = v.drawText(x, top+1, width, entry, stateStyle(t.State))
	}
}

// drawText writes s from column x, clipped at width. Returns the column after
// the last cell written.
func (v *Viewer) drawText(x, y, width int, s string, style tcell.Style) int {
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if x+rw > width {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x += max(rw, 1)
	}
	return x
}

// putGlyph draws a single glyph (ASCII or multi-rune emoji) at (x, y).
func (v *Viewer) putGlyph(x, y int, glyph string, style tcell.Style) {
	runes := []rune(glyph)
	if len(runes) == 0 {
		return
	}
	var combc []rune
	if len(runes) > 1 {
		combc = runes[1:]
	}
	v.screen.SetContent(x, y, runes[0], combc, style)
	if runewidth.StringWidth(glyph) == 2 {
		v.screen.SetContent(x+1, y, ' ', nil, style)
	}
}

// projection maps the arena X/Z plane into the map area inside the border.
type projection struct {
	minX, minZ, spanX, spanZ float64
	cols, rows               int
}

func newProjection(s *snapshot.Snapshot, w, h int) projection {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	grow := func(x, z float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
	}

	if len(s.Bounds) > 0 {
		for _, c := range s.Bounds {
			grow(c[0], c[1])
		}
	} else {
		for _, t := range s.Tanks {
			grow(t.Position[0], t.Position[2])
		}
		for _, wp := range s.Waypoints {
			grow(wp[0], wp[2])
		}
		if s.Player != nil {
			grow(s.Player.Position[0], s.Player.Position[2])
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minZ, maxZ = -1, 1, -1, 1
	}

	return projection{
		minX:  minX,
		minZ:  minZ,
		spanX: math.Max(maxX-minX, 1),
		spanZ: math.Max(maxZ-minZ, 1),
		cols:  w - 2,
		rows:  h - 2,
	}
}

func (p projection) toScreen(pt snapshot.Point) (int, int) {
	fx := (pt[0] - p.minX) / p.spanX
	fz := (pt[2] - p.minZ) / p.spanZ
	col := 1 + clamp(int(math.Round(fx*float64(p.cols-1))), 0, p.cols-1)
	row := 1 + clamp(int(math.Round((1-fz)*float64(p.rows-1))), 0, p.rows-1)
	return col, row
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
