package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	ColorReset    = "\033[0m"
	ColorBold     = "\033[1m"
	ColorPurple   = "\033[35m"
	ColorNeonCyan = "\033[96m"
	ColorNeonMag  = "\033[95m"
	ColorYellow   = "\033[93m"
)

// TermWidth returns the width of stdout, or 80 when it is not a terminal.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func PrintBanner(w io.Writer) {
	banner := `
   ____  _________  __  ________
  / __/ / ___/ __ \/ / / /_  __/
 _\ \  / /__/ /_/ / /_/ / / /
/___/  \___/\____/\____/ /_/

   >> COMPANY RESEARCH & ACCOUNT PLANS <<
`

	width := TermWidth()
	color := IsTerminal()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		if color {
			fmt.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", padding), ColorNeonCyan+l, ColorReset)
		} else {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", padding), l)
		}
	}
}
