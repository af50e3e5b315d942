package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
)

// SetMuted ramps playback gain to 0 or 1. Playback itself keeps running.
func (a *Assistant) SetMuted(muted bool) error {
	return a.exec(func() { a.setMuted(muted) })
}

// ToggleMute flips the mute state and returns the new value.
func (a *Assistant) ToggleMute() (bool, error) {
	var muted bool
	err := a.exec(func() {
		a.setMuted(!a.muted)
		muted = a.muted
	})
	return muted, err
}

func (a *Assistant) setMuted(muted bool) {
	a.muted = muted
	a.opts.Scheduler.SetMuted(muted)
}

// AddProtocol stores a new trigger phrase under a fresh id. It takes effect
// from the next session.
func (a *Assistant) AddProtocol(phrase, action string) (model.Protocol, error) {
	phrase, action = strings.TrimSpace(phrase), strings.TrimSpace(action)
	if phrase == "" || action == "" {
		return model.Protocol{}, fmt.Errorf("%w: phrase and action are required", ErrInvalid)
	}

	p := model.Protocol{ID: uuid.NewString(), Phrase: phrase, Action: action}
	err := a.exec(func() {
		a.protocols = append(a.protocols, p)
		a.persist()
		a.log(fmt.Sprintf("PROTOCOL: %s UPLOADED.", p.Phrase))
	})
	return p, err
}

func (a *Assistant) RemoveProtocol(id string) error {
	var found bool
	err := a.exec(func() {
		kept := a.protocols[:0:0]
		for _, p := range a.protocols {
			if p.ID == id {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if found {
			a.protocols = kept
			a.persist()
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("protocol %s: %w", id, ErrNotFound)
	}
	return nil
}

func (a *Assistant) AddMemory(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: memory text is required", ErrInvalid)
	}
	return a.exec(func() {
		a.memories = append(a.memories, text)
		a.persist()
	})
}

// RemoveMemory deletes the memory at index.
func (a *Assistant) RemoveMemory(index int) error {
	var found bool
	err := a.exec(func() {
		if index < 0 || index >= len(a.memories) {
			return
		}
		found = true
		a.memories = append(append([]string{}, a.memories[:index]...), a.memories[index+1:]...)
		a.persist()
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("memory %d: %w", index, ErrNotFound)
	}
	return nil
}

func (a *Assistant) ClearHistory() error {
	return a.exec(func() {
		a.history = []model.ConversationTurn{}
		a.persist()
		a.log(LogHistoryPurge)
	})
}

// SearchHistory returns the entries whose content contains query, ignoring
// case. An empty query returns the whole history.
func (a *Assistant) SearchHistory(query string) ([]model.ConversationTurn, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := []model.ConversationTurn{}
	err := a.exec(func() {
		for _, turn := range a.history {
			if strings.Contains(strings.ToLower(turn.Content), needle) {
				out = append(out, turn)
			}
		}
	})
	return out, err
}

// SearchScriptures runs a grounded lookup. The previous result is cleared
// while the lookup is in flight; on failure it stays nil.
func (a *Assistant) SearchScriptures(ctx context.Context, query string) (*model.ScriptureResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, llm.ErrEmptyQuery)
	}
	if a.opts.Searcher == nil {
		return nil, ErrSearchUnavailable
	}

	if err := a.exec(func() {
		a.searching = true
		a.scripture = nil
		a.log(fmt.Sprintf("SCAN: ACCESSING VEDIC DATABANKS -> %s", query))
	}); err != nil {
		return nil, err
	}

	result, searchErr := a.opts.Searcher.Search(ctx, query)

	err := a.exec(func() {
		a.searching = false
		if searchErr != nil {
			logger.Error("Scripture search failed", "query", query, "error", searchErr)
			a.metrics.Searches.WithLabelValues("error").Inc()
			a.log("SCAN: ARCHIVE ACCESS DENIED.")
			return
		}
		a.scripture = result
		a.metrics.Searches.WithLabelValues("ok").Inc()
		a.log("SCAN: ANALYSIS COMPLETE.")
	})
	if searchErr != nil {
		return nil, searchErr
	}
	return result, err
}
