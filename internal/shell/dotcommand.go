package shell

import "strings"

// DotCommand is a control directive handled by the shell itself rather than
// sent to the warehouse.
type DotCommand int

// Known dot-commands.
const (
	DotNone DotCommand = iota
	DotHelp
	DotExit
	DotQuit
	DotTables
)

var dotCommandTokens = map[string]DotCommand{
	".help":   DotHelp,
	".exit":   DotExit,
	".quit":   DotQuit,
	".tables": DotTables,
}

// String returns the token the user types for the command.
func (d DotCommand) String() string {
	switch d {
	case DotHelp:
		return ".help"
	case DotExit:
		return ".exit"
	case DotQuit:
		return ".quit"
	case DotTables:
		return ".tables"
	case DotNone:
		return ""
	}
	return ""
}

// Description is the one-line help shown by .help.
func (d DotCommand) Description() string {
	switch d {
	case DotHelp:
		return "Show this help message"
	case DotExit:
		return "Exit the interactive shell"
	case DotQuit:
		return "Exit the interactive shell (alias for .exit)"
	case DotTables:
		return "List tables in the current database"
	case DotNone:
		return ""
	}
	return ""
}

// Terminates reports whether the command ends the session.
func (d DotCommand) Terminates() bool {
	return d == DotExit || d == DotQuit
}

// ParseDotCommand recognizes a line that consists of exactly one dot-command
// token once surrounding whitespace is removed.
func ParseDotCommand(line string) (DotCommand, bool) {
	cmd, ok := dotCommandTokens[strings.TrimSpace(line)]
	return cmd, ok
}

// DotCommands returns every known dot-command in display order.
func DotCommands() []DotCommand {
	return []DotCommand{DotHelp, DotTables, DotExit, DotQuit}
}
