// pattern: Imperative Shell
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/x/ansi"

	"venvscout/internal/venv"
)

const progressWidth = 30

// progressLine redraws a single status line with a progress bar.
type progressLine struct {
	w     io.Writer
	bar   progress.Model
	muted func(...string) string
	last  venv.Progress
	shown bool
}

func newProgressLine(w io.Writer, styles *Styles) *progressLine {
	from, to := styles.ProgressColors()
	return &progressLine{
		w:     w,
		bar:   progress.New(progress.WithGradient(from, to), progress.WithWidth(progressWidth)),
		muted: styles.MutedStyle().Render,
	}
}

// Update redraws the line when the visible figures change.
func (p *progressLine) Update(pr venv.Progress) {
	if p.shown && pr.Percent == p.last.Percent && pr.Visited == p.last.Visited {
		return
	}
	p.last = pr
	p.shown = true
	counts := p.muted(fmt.Sprintf("%d/%d directories", pr.Processed, pr.Visited))
	fmt.Fprintf(p.w, "\r%s%s %s", ansi.EraseEntireLine, p.bar.ViewAs(float64(pr.Percent)/100), counts)
}

// Clear erases the line so that regular output starts at column 0.
func (p *progressLine) Clear() {
	if !p.shown {
		return
	}
	fmt.Fprintf(p.w, "\r%s", ansi.EraseEntireLine)
	p.shown = false
}
