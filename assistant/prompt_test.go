package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/store"
)

func TestBuildSystemInstruction(t *testing.T) {
	got := BuildSystemInstruction(store.DefaultMemories(), store.DefaultProtocols())

	assert.True(t, strings.HasPrefix(got, SystemInstructionBase))
	assert.True(t, strings.HasSuffix(got, "\n\nPAST CONTEXT & MEMORIES:\n"+
		"- Boss prefers Hinglish interaction.\n"+
		"- Admin access granted."+
		"\n\nCUSTOM USER PROTOCOLS:\n"+
		"- If user says \"Initiate Red Protocol\": Set all systems to maximum alert and scan local perimeter.\n"+
		"- If user says \"Dharma Check\": Quote a relevant shloka from Bhagavad Gita for the current situation."))
}

func TestBuildSystemInstructionOmitsEmptySections(t *testing.T) {
	assert.Equal(t, SystemInstructionBase, BuildSystemInstruction(nil, nil))

	got := BuildSystemInstruction(nil, []model.Protocol{{Phrase: "Go dark", Action: "Mute everything."}})
	assert.NotContains(t, got, "PAST CONTEXT")
	assert.Contains(t, got, "- If user says \"Go dark\": Mute everything.")
}
