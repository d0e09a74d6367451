package shell

import (
	"fmt"
	"strings"
)

// HelpProvider supplies the text printed by .help.
type HelpProvider interface {
	HelpText() string
}

// StaticHelp lists the built-in dot-commands followed by usage tips.
type StaticHelp struct{}

// HelpText implements HelpProvider.
func (StaticHelp) HelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, cmd := range DotCommands() {
		fmt.Fprintf(&b, "  %-10s %s\n", cmd.String(), cmd.Description())
	}
	b.WriteString(`
Tips:
  - SQL statements must end with a semicolon (;)
  - Several statements may be given on one line
  - Press Ctrl-C to discard the statement being typed
  - Use arrow keys to navigate history, Tab to complete
`)
	return b.String()
}
