package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrsingh-rishi/brahmastra/model"
)

func TestExecuteCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantStats model.Stats
		wantLogs  []string
		wantReply string
	}{
		{
			name:      "power level from value",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "POWER_LEVEL", "value": "75"},
			wantStats: model.Stats{Power: 75, Memory: 45, Logic: 95},
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> POWER_LEVEL (75)"},
			wantReply: Confirmation,
		},
		{
			name:      "unparsable power defaults to 100",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "POWER_LEVEL", "value": "notanumber"},
			wantStats: model.Stats{Power: 100, Memory: 45, Logic: 95},
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> POWER_LEVEL (notanumber)"},
			wantReply: Confirmation,
		},
		{
			name:      "percent suffix is ignored",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "POWER_LEVEL", "value": " 100%"},
			wantStats: model.Stats{Power: 100, Memory: 45, Logic: 95},
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> POWER_LEVEL ( 100%)"},
			wantReply: Confirmation,
		},
		{
			name:      "missing power value defaults to 100",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "POWER_LEVEL"},
			wantStats: model.Stats{Power: 100, Memory: 45, Logic: 95},
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> POWER_LEVEL"},
			wantReply: Confirmation,
		},
		{
			name:      "numeric value from the model",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "POWER_LEVEL", "value": 42.0},
			wantStats: model.Stats{Power: 42, Memory: 45, Logic: 95},
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> POWER_LEVEL (42)"},
			wantReply: Confirmation,
		},
		{
			name:      "other settings only log",
			args:      map[string]any{"command": "ADJUST_SETTING", "target": "BRIGHTNESS", "value": "10"},
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: ADJUST_SETTING -> BRIGHTNESS (10)"},
			wantReply: Confirmation,
		},
		{
			name:      "security lock",
			args:      map[string]any{"command": "SECURITY_LOCK", "target": "SYSTEM_CORE"},
			wantStats: model.Stats{Power: 88, Memory: 45, Logic: 100},
			wantLogs:  []string{"EXEC: SECURITY_LOCK -> SYSTEM_CORE", "ALERT: ALL SECTORS LOCKED"},
			wantReply: Confirmation,
		},
		{
			name:      "open app",
			args:      map[string]any{"command": "OPEN_APP", "target": "CHROME"},
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: OPEN_APP -> CHROME", "SYSTEM: Launching CHROME environment..."},
			wantReply: Confirmation,
		},
		{
			name:      "unknown command is confirmed",
			args:      map[string]any{"command": "FILE_SCAN", "target": "LOCAL_DRIVE"},
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: FILE_SCAN -> LOCAL_DRIVE"},
			wantReply: Confirmation,
		},
		{
			name:      "commands are case sensitive",
			args:      map[string]any{"command": "security_lock", "target": "core"},
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: security_lock -> core"},
			wantReply: Confirmation,
		},
		{
			name:      "missing target is logged and confirmed",
			args:      map[string]any{"command": "SECURITY_LOCK"},
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: INVALID COMMAND"},
			wantReply: Confirmation,
		},
		{
			name:      "empty call is logged and confirmed",
			args:      nil,
			wantStats: InitialStats,
			wantLogs:  []string{"EXEC: INVALID COMMAND"},
			wantReply: Confirmation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := InitialStats
			var logs []string
			reply := ExecuteCommand(tt.args, &stats, func(s string) { logs = append(logs, s) })

			assert.Equal(t, tt.wantReply, reply)
			assert.Equal(t, tt.wantStats, stats)
			assert.Equal(t, tt.wantLogs, logs)
		})
	}
}

func TestSecurityLockOverridesAnyLogic(t *testing.T) {
	for _, logic := range []int{0, 37, 100, 250} {
		stats := model.Stats{Logic: logic}
		ExecuteCommand(map[string]any{"command": "SECURITY_LOCK", "target": "anything"}, &stats, func(string) {})
		assert.Equal(t, 100, stats.Logic)
	}
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"75", 75, true},
		{"  -12abc", -12, true},
		{"+7", 7, true},
		{"0", 0, true},
		{"100%", 100, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc12", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLeadingInt(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
