package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Globals struct {
	Debug   bool
	Version string
}

func init() {
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// printer writes coloured status lines.
type printer struct {
	out io.Writer
}

func (p printer) success(format string, a ...any) {
	_, _ = green.Fprintf(p.out, "✓ "+format+"\n", a...)
}

func (p printer) warning(format string, a ...any) {
	_, _ = yellow.Fprintf(p.out, "! "+format+"\n", a...)
}

func (p printer) failure(format string, a ...any) {
	_, _ = red.Fprintf(p.out, "✗ "+format+"\n", a...)
}

func (p printer) plain(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", a...)
}
