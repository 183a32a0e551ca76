package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/praetorian-inc/logsift/pkg/types"
	"golang.org/x/term"
)

// ColorMode controls colored status output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses auto, always or never. Empty selects auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
}

// StatusPrinter prints one terminal status line per scanned file.
type StatusPrinter struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
	failed  *color.Color
}

// NewStatusPrinter creates a printer writing to out. In auto mode colors
// are used only when out is a terminal and NO_COLOR is unset.
func NewStatusPrinter(out io.Writer, mode ColorMode) *StatusPrinter {
	p := &StatusPrinter{
		out:     out,
		success: color.New(color.Bold, color.FgHiGreen),
		failure: color.New(color.Bold, color.FgYellow),
		failed:  color.New(color.Bold, color.FgHiRed),
	}

	enabled := mode == ColorAlways
	if mode == ColorAuto || mode == "" {
		enabled = isTerminal(out) && os.Getenv("NO_COLOR") == ""
	}
	for _, c := range []*color.Color{p.success, p.failure, p.failed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes the status line for o.
func (p *StatusPrinter) Print(o *types.Outcome) {
	fmt.Fprintln(p.out, p.Line(o))
}

// Line formats the status line for o.
func (p *StatusPrinter) Line(o *types.Outcome) string {
	switch o.Status {
	case types.StatusSuccess:
		return fmt.Sprintf("%s %d rules matched in %s", p.success.Sprint("[SUCCESS]"), o.Count, o.Name())
	case types.StatusFailure:
		return fmt.Sprintf("%s 0 rules matched in %s", p.failure.Sprint("[FAILURE]"), o.Name())
	}
	return fmt.Sprintf("%s Error occurred while scanning %s: %s", p.failed.Sprint("[ERROR]"), o.Name(), o.Error)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
