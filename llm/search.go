package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mrsingh-rishi/brahmastra/model"
)

var ErrEmptyQuery = errors.New("query is required")

const (
	scriptureSource  = "Deep Scriptural Index"
	noMatchesText    = "Scanning yielded no significant matches."
	defaultLinkTitle = "Source"
)

// ScripturePrompt is the one-shot prompt sent for a scripture query.
func ScripturePrompt(query string) string {
	return fmt.Sprintf(`Reference Hindu scriptures (Mahabharat, Ramayana, Geeta, Puranas, or Vedas) for: "%s". Provide Shloka and Hinglish explanation as BRAHMASTRA.`, query)
}

// NewScriptureResult applies the display fallbacks for empty text and
// untitled sources.
func NewScriptureResult(text string, refs []model.SourceRef) *model.ScriptureResult {
	if strings.TrimSpace(text) == "" {
		text = noMatchesText
	}
	urls := make([]model.SourceRef, 0, len(refs))
	for _, r := range refs {
		if r.Title == "" {
			r.Title = defaultLinkTitle
		}
		urls = append(urls, r)
	}
	return &model.ScriptureResult{Explanation: text, Source: scriptureSource, URLs: urls}
}

// GeminiSearcher answers scripture queries with web grounding enabled.
type GeminiSearcher struct {
	client *genai.Client
	model  string
}

func NewGeminiSearcher(client *genai.Client, model string) (*GeminiSearcher, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &GeminiSearcher{client: client, model: model}, nil
}

func (s *GeminiSearcher) Search(ctx context.Context, query string) (*model.ScriptureResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(ScripturePrompt(query)), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return NewScriptureResult(resp.Text(), GroundingSources(resp)), nil
}

// GroundingSources extracts the web references of the first candidate.
func GroundingSources(resp *genai.GenerateContentResponse) []model.SourceRef {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	refs := make([]model.SourceRef, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		var ref model.SourceRef
		if chunk != nil && chunk.Web != nil {
			ref.URI = chunk.Web.URI
			ref.Title = chunk.Web.Title
		}
		refs = append(refs, ref)
	}
	return refs
}
