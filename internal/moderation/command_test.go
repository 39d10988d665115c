package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testcases := []struct {
		Line     string
		Expected Command
	}{
		{Line: "/ban alice", Expected: BanCommand{Username: "alice"}},
		{Line: "ban alice", Expected: BanCommand{Username: "alice"}},
		{Line: "  /ban   alice  ", Expected: BanCommand{Username: "alice"}},
		{Line: "/ban alice 0,0,10", Expected: BanCommand{Username: "alice", Seconds: 10, HasDuration: true}},
		{Line: "/ban alice 1,2,3", Expected: BanCommand{Username: "alice", Years: 1, Months: 2, Seconds: 3, HasDuration: true}},
		{Line: "/ban alice 0,0,0", Expected: BanCommand{Username: "alice", HasDuration: true}},
		{Line: "/ban alice 5,x,0", Expected: UnrecognizedCommand{}},
		{Line: "/ban alice 1, 2, 3", Expected: UnrecognizedCommand{}},
		{Line: "/ban alice 1,2", Expected: UnrecognizedCommand{}},
		{Line: "/ban alice -1,0,0", Expected: UnrecognizedCommand{}},
		{Line: "/ban alice 1,2,3 extra", Expected: UnrecognizedCommand{}},
		{Line: "/ban alice 99999999999999999999,0,0", Expected: UnrecognizedCommand{}},
		{Line: "/ban", Expected: UnrecognizedCommand{}},
		{Line: "/unban bob", Expected: UnbanCommand{Username: "bob"}},
		{Line: "/unban", Expected: UsageCommand{Verb: "unban"}},
		{Line: "/banlist", Expected: BanListCommand{}},
		{Line: "banlist", Expected: BanListCommand{}},
		{Line: "/banlist now", Expected: UnrecognizedCommand{}},
		{Line: "/kick carol", Expected: KickCommand{Username: "carol"}},
		{Line: "/kick", Expected: UsageCommand{Verb: "kick"}},
		{Line: "/mute dave", Expected: UnrecognizedCommand{}},
		{Line: "/BAN alice", Expected: UnrecognizedCommand{}},
		{Line: "", Expected: UnrecognizedCommand{}},
		{Line: "/", Expected: UnrecognizedCommand{}},
	}

	for _, testcase := range testcases {
		t.Run(testcase.Line, func(t *testing.T) {
			require.Equal(t, testcase.Expected, Parse(testcase.Line))
		})
	}
}

func TestUsage(t *testing.T) {
	require.Equal(t, []string{
		"ban <username> [years,months,seconds]",
		"unban <username>",
		"banlist",
		"kick <username>",
	}, Usage())
}
