package moderation

import (
	"regexp"
	"strconv"
	"strings"
)

// Command is the parsed form of a console line. It is one of
// BanCommand, UnbanCommand, BanListCommand, KickCommand, UsageCommand or UnrecognizedCommand.
type Command interface {
	command()
}

// BanCommand - ban <username> [<years>,<months>,<seconds>]
type BanCommand struct {
	Username    string
	Years       int
	Months      int
	Seconds     int
	HasDuration bool // the numeric suffix was present
}

// UnbanCommand - unban <username>
type UnbanCommand struct {
	Username string
}

// BanListCommand - banlist
type BanListCommand struct{}

// KickCommand - kick <username>
type KickCommand struct {
	Username string
}

// UsageCommand - a known verb without its username argument
type UsageCommand struct {
	Verb string
}

// UnrecognizedCommand - anything else
type UnrecognizedCommand struct{}

func (BanCommand) command()          {}
func (UnbanCommand) command()        {}
func (BanListCommand) command()      {}
func (KickCommand) command()         {}
func (UsageCommand) command()        {}
func (UnrecognizedCommand) command() {}

// The duration suffix is strict: three comma separated integers without spaces.
var banPattern = regexp.MustCompile(`^ban\s+(\S+)(?:\s+(\d+),(\d+),(\d+))?$`)

// Parse - turn one console line into a Command. A leading "/" is optional.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return UnrecognizedCommand{}
	}

	switch fields[0] {
	case "ban":
		return parseBan(line)
	case "unban":
		if len(fields) < 2 {
			return UsageCommand{Verb: "unban"}
		}
		return UnbanCommand{Username: fields[1]}
	case "banlist":
		if len(fields) != 1 {
			return UnrecognizedCommand{}
		}
		return BanListCommand{}
	case "kick":
		if len(fields) < 2 {
			return UsageCommand{Verb: "kick"}
		}
		return KickCommand{Username: fields[1]}
	default:
		return UnrecognizedCommand{}
	}
}

func parseBan(line string) Command {
	m := banPattern.FindStringSubmatch(line)
	if m == nil {
		return UnrecognizedCommand{}
	}

	cmd := BanCommand{Username: m[1]}
	if m[2] == "" {
		return cmd
	}

	values := make([]int, 0, 3)
	for _, raw := range m[2:5] {
		value, err := strconv.Atoi(raw)
		if err != nil { // out of range
			return UnrecognizedCommand{}
		}
		values = append(values, value)
	}

	cmd.Years, cmd.Months, cmd.Seconds = values[0], values[1], values[2]
	cmd.HasDuration = true
	return cmd
}

// Usage - help text for the console, one line per verb.
func Usage() []string {
	return []string{
		"ban <username> [years,months,seconds]",
		"unban <username>",
		"banlist",
		"kick <username>",
	}
}
