package reading

import (
	"fmt"
	"strings"

	"github.com/zekun-wu/EyeReadDemo/internal/gaze"
)

// CellForSample maps a gaze sample from device screen coordinates onto
// a cols×rows cell grid. Samples outside the screen clamp to the edge
// cell, so a wandering gaze never leaves the page.
func CellForSample(s gaze.Sample, screenW, screenH float64, cols, rows int) (col, row int) {
	if screenW <= 0 {
		screenW = 1920
	}
	if screenH <= 0 {
		screenH = 1080
	}
	col = int(s.X / screenW * float64(cols))
	row = int(s.Y / screenH * float64(rows))
	if col < 0 {
		col = 0
	}
	if col > cols-1 {
		col = cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row > rows-1 {
		row = rows - 1
	}
	return col, row
}

// pageCanvas draws a plain-text stand-in for a picture page: a dotted
// field with the filename and page position centered. Every line is
// exactly cols runes wide so a marker can be spliced at any cell.
func pageCanvas(name string, pageNo, total, cols, rows int) []string {
	if cols < 12 {
		cols = 12
	}
	if rows < 5 {
		rows = 5
	}

	seed := 0
	for _, r := range name {
		seed = seed*31 + int(r)
	}
	if seed < 0 {
		seed = -seed
	}

	lines := make([]string, rows)
	for y := 0; y < rows; y++ {
		row := make([]rune, cols)
		for x := 0; x < cols; x++ {
			row[x] = ' '
			if (x+seed)%6 == 0 && (y+seed)%3 == 0 {
				row[x] = '·'
			}
		}
		lines[y] = string(row)
	}

	center(lines, rows/2-1, cols, name)
	center(lines, rows/2+1, cols, fmt.Sprintf("page %d of %d", pageNo, total))
	return lines
}

// center overwrites the middle of one canvas line with text, keeping
// the line exactly cols runes wide.
func center(lines []string, row, cols int, text string) {
	if row < 0 || row >= len(lines) {
		return
	}
	t := []rune(text)
	if len(t) > cols {
		t = t[:cols]
	}
	start := (cols - len(t)) / 2
	r := []rune(lines[row])
	copy(r[start:], t)
	lines[row] = string(r)
}

// spliceRow splits one canvas line around the marker cell, dropping the
// rune the marker replaces. Out-of-range cells return ok false.
func spliceRow(line string, col int) (left, right string, ok bool) {
	r := []rune(line)
	if col < 0 || col >= len(r) {
		return "", "", false
	}
	return string(r[:col]), string(r[col+1:]), true
}

// padLine pads or truncates a line to exactly cols runes.
func padLine(line string, cols int) string {
	r := []rune(line)
	if len(r) >= cols {
		return string(r[:cols])
	}
	return string(r) + strings.Repeat(" ", cols-len(r))
}
