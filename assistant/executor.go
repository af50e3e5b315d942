package assistant

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mrsingh-rishi/brahmastra/model"
)

const (
	CommandAdjustSetting = "ADJUST_SETTING"
	CommandSecurityLock  = "SECURITY_LOCK"
	CommandOpenApp       = "OPEN_APP"

	TargetPowerLevel = "POWER_LEVEL"

	// Confirmation is relayed to the model after every call.
	Confirmation = "Command processed successfully, Sir. System under full control."

	defaultPower = 100
)

// ExecuteCommand applies one execute_system_command call to stats and
// returns the text to send back to the model. Every effect is simulated:
// nothing outside stats and the log is touched. Unknown or incomplete
// commands are logged and confirmed without any other effect.
func ExecuteCommand(args map[string]any, stats *model.Stats, logf func(string)) string {
	command := argString(args, "command")
	target := argString(args, "target")
	value := argString(args, "value")

	if command == "" || target == "" {
		logf("EXEC: INVALID COMMAND")
		return Confirmation
	}

	line := fmt.Sprintf("EXEC: %s -> %s", command, target)
	if value != "" {
		line += fmt.Sprintf(" (%s)", value)
	}
	logf(line)

	switch {
	case command == CommandAdjustSetting && target == TargetPowerLevel:
		power, ok := parseLeadingInt(value)
		if !ok {
			power = defaultPower
		}
		stats.Power = power
	case command == CommandSecurityLock:
		logf("ALERT: ALL SECTORS LOCKED")
		stats.Logic = 100
	case command == CommandOpenApp:
		logf(fmt.Sprintf("SYSTEM: Launching %s environment...", target))
	}
	return Confirmation
}

func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// parseLeadingInt reads an optionally signed run of decimal digits after
// leading whitespace and ignores whatever follows, so "100%" is 100.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// toolLabel keeps the metrics label set small.
func toolLabel(args map[string]any) string {
	switch c := argString(args, "command"); c {
	case CommandAdjustSetting, CommandSecurityLock, CommandOpenApp:
		return c
	case "":
		return "invalid"
	}
	return "other"
}
