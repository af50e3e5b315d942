package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
)

// chatStreamer is the part of the OpenAI client the searcher needs.
type chatStreamer interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// OpenAISearcher answers scripture queries through an OpenAI-compatible chat
// endpoint. It has no web grounding, so results carry no source links.
type OpenAISearcher struct {
	Client             chatStreamer
	SystemInstructions string
	Model              string
	// OnSentence receives each complete sentence as it streams in.
	// NewOpenAISearcher logs them at debug level.
	OnSentence func(string)
}

func NewOpenAISearcher(apiKey string, systemInstructions string, model string) (*OpenAISearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &OpenAISearcher{
		Client:             openai.NewClient(apiKey),
		SystemInstructions: systemInstructions,
		Model:              model,
		OnSentence:         logSentence,
	}, nil
}

func logSentence(s string) {
	logger.Debug("Scripture search streaming", "sentence", s)
}

var sentenceRe = regexp.MustCompile(`[^\.!\?]*[\.!\?]`)

func (c *OpenAISearcher) Search(ctx context.Context, query string) (*model.ScriptureResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	logger.Debug("Sending scripture query to OpenAI", "model", c.Model)

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.SystemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: ScripturePrompt(query)},
		},
		Stream: true,
	}
	stream, err := c.Client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to stream OpenAI response: %w", err)
	}
	defer stream.Close()

	buffer := &strings.Builder{}
	var sentences []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error receiving OpenAI response: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		for _, s := range processChunk(buffer, resp.Choices[0].Delta.Content, sentenceRe) {
			sentences = append(sentences, c.emit(s))
		}
	}

	if leftover := strings.TrimSpace(buffer.String()); leftover != "" {
		sentences = append(sentences, c.emit(leftover))
	}
	return NewScriptureResult(strings.Join(sentences, " "), nil), nil
}

func (c *OpenAISearcher) emit(s string) string {
	if c.OnSentence != nil {
		c.OnSentence(s)
	}
	return s
}

// processChunk appends new text, extracts all full sentences and leaves the
// unfinished tail in buffer.
func processChunk(buffer *strings.Builder, chunk string, sentenceRe *regexp.Regexp) []string {
	buffer.WriteString(chunk)
	text := buffer.String()

	var sentences []string
	for {
		loc := sentenceRe.FindStringIndex(text)
		if loc == nil {
			break
		}
		sentence := strings.TrimSpace(text[:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		text = text[loc[1]:]
	}

	buffer.Reset()
	buffer.WriteString(text)
	return sentences
}
