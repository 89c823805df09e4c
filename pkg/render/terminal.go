// pkg/render/terminal.go
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// CrashBanner is shown under the viewport while the aircraft is crashed.
const CrashBanner = "You Crashed! Press 'R' to Restart"

// TerminalRenderer draws the arena as ASCII cells. Each cell covers a
// fixed patch of world space computed from the arena size.
type TerminalRenderer struct {
	width  int
	height int
	buffer [][]rune
	scaleX float64
	scaleY float64
	out    io.Writer

	status  string
	crashed bool
}

// NewTerminalRenderer creates a renderer with a width x height cell
// viewport. A nil out writes to stdout.
func NewTerminalRenderer(width, height int, out io.Writer) *TerminalRenderer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if out == nil {
		out = os.Stdout
	}
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}
	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scaleX: 1,
		scaleY: 1,
		out:    out,
	}
	r.Clear()
	return r
}

// Clear implements Renderer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
	r.status = ""
	r.crashed = false
}

// RenderArena implements Renderer. It fixes the cell scale for the rest of
// the frame and paints the scenery.
func (r *TerminalRenderer) RenderArena(bounds physics.Rect, scenery Scenery) {
	if bounds.Width > 0 {
		r.scaleX = bounds.Width / float64(r.width)
	}
	if bounds.Height > 0 {
		r.scaleY = bounds.Height / float64(r.height)
	}

	for _, cloud := range scenery.Clouds {
		r.fillRect(cloud, '~')
	}
	for row := 0; row < r.height; row++ {
		for col := 0; col < r.width; col++ {
			p := r.cellCenter(col, row)
			for _, m := range scenery.Mountains {
				if m.Contains(p) {
					r.buffer[row][col] = '^'
					break
				}
			}
		}
	}
	r.fillRect(scenery.Ground, '=')
	for _, tree := range scenery.Trees {
		// Trees stand on the ground line, so draw them one cell above it
		if col, row, ok := r.worldToScreen(tree); ok && row > 0 {
			r.buffer[row-1][col] = 'T'
		}
	}
}

// RenderZone implements Renderer
func (r *TerminalRenderer) RenderZone(zone physics.Zone) {
	r.fillRect(zone.Rect, '#')
}

// RenderAircraft implements Renderer
func (r *TerminalRenderer) RenderAircraft(view physics.FlightView) {
	r.crashed = view.Status == physics.Crashed
	r.status = fmt.Sprintf("x=%.0f y=%.0f heading=%.2f throttle=%.3f %s",
		view.Position.X, view.Position.Y, view.Heading, view.Throttle, view.Status)
	if r.crashed && view.Collision.Kind != physics.CollisionNone {
		r.status += " (" + view.Collision.Kind.String()
		if view.Collision.Zone != "" {
			r.status += ": " + view.Collision.Zone
		}
		r.status += ")"
	}

	col, row, ok := r.worldToScreen(view.Position)
	if !ok {
		return
	}
	if r.crashed {
		r.buffer[row][col] = 'X'
		return
	}
	r.buffer[row][col] = headingGlyph(view.Heading)
}

// Present implements Renderer
func (r *TerminalRenderer) Present() {
	w := bufio.NewWriter(r.out)
	w.WriteString("\033[H\033[2J")
	w.WriteString(r.Frame())
	w.Flush()
}

// Frame returns the bordered viewport, status line and crash banner. Lines
// end in CRLF so the output also reads correctly in raw terminal mode.
func (r *TerminalRenderer) Frame() string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\r\n"
	b.WriteString(border)
	for _, row := range r.buffer {
		b.WriteString("|")
		b.WriteString(string(row))
		b.WriteString("|\r\n")
	}
	b.WriteString(border)
	b.WriteString(r.status)
	b.WriteString("\r\n")
	if r.crashed {
		b.WriteString(CrashBanner)
		b.WriteString("\r\n")
	}
	return b.String()
}

// worldToScreen converts world coordinates to a cell, reporting whether
// the cell is inside the viewport.
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int, bool) {
	col := int(math.Floor(pos.X / r.scaleX))
	row := int(math.Floor(pos.Y / r.scaleY))
	if col < 0 || col >= r.width || row < 0 || row >= r.height {
		return 0, 0, false
	}
	return col, row, true
}

func (r *TerminalRenderer) cellCenter(col, row int) physics.Vector2D {
	return physics.Vector2D{
		X: (float64(col) + 0.5) * r.scaleX,
		Y: (float64(row) + 0.5) * r.scaleY,
	}
}

// fillRect paints every cell the rectangle overlaps, so walls thinner than
// a cell still show up.
func (r *TerminalRenderer) fillRect(rect physics.Rect, glyph rune) {
	if rect.Empty() {
		return
	}
	c0 := clamp(int(math.Floor(rect.X/r.scaleX)), 0, r.width)
	c1 := clamp(int(math.Ceil((rect.X+rect.Width)/r.scaleX)), 0, r.width)
	r0 := clamp(int(math.Floor(rect.Y/r.scaleY)), 0, r.height)
	r1 := clamp(int(math.Ceil((rect.Y+rect.Height)/r.scaleY)), 0, r.height)
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			r.buffer[row][col] = glyph
		}
	}
}

// headingGlyph picks the arrow closest to the thrust direction.
func headingGlyph(heading float64) rune {
	a := math.Mod(heading, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	switch quadrant := int(math.Floor((a+math.Pi/4)/(math.Pi/2))) % 4; quadrant {
	case 1:
		return '^'
	case 2:
		return '<'
	case 3:
		return 'v'
	default:
		return '>'
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
