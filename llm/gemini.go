package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/types"
)

// NewGeminiClient creates a Gemini API client shared by the live connector
// and the scripture searcher.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// GeminiConnector opens Gemini Live sessions.
type GeminiConnector struct {
	client *genai.Client
	model  string
}

func NewGeminiConnector(client *genai.Client, model string) (*GeminiConnector, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &GeminiConnector{client: client, model: model}, nil
}

// LiveConfig builds the session configuration: system prompt, audio
// responses, the system command tool, the prebuilt voice and transcription
// in both directions.
func LiveConfig(cfg SessionConfig) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction:  genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{SystemCommandDeclaration()}},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
}

func (c *GeminiConnector) Connect(ctx context.Context, cfg SessionConfig) (Transport, error) {
	session, err := c.client.Live.Connect(ctx, c.model, LiveConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("live connect: %w", err)
	}
	return &geminiTransport{session: session}, nil
}

type geminiTransport struct {
	session *genai.Session

	// sendMu serializes writes; the underlying websocket allows one writer.
	sendMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func (t *geminiTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *geminiTransport) SendMedia(frame model.MediaFrame) error {
	if t.isClosed() {
		return ErrClosed
	}
	data, err := audio.DecodeText(frame.Data)
	if err != nil {
		return err
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: data, MIMEType: frame.MIMEType},
	})
}

func (t *geminiTransport) SendToolResponse(responses []model.ToolResponse) error {
	if t.isClosed() {
		return ErrClosed
	}
	out := make([]*genai.FunctionResponse, 0, len(responses))
	for _, r := range responses {
		out = append(out, &genai.FunctionResponse{ID: r.ID, Name: r.Name, Response: r.Response})
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: out})
}

func (t *geminiTransport) Receive() (*types.ServerMessage, error) {
	msg, err := t.session.Receive()
	if err != nil {
		if t.isClosed() || isNormalClosure(err) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return ToServerMessage(msg), nil
}

func (t *geminiTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	return t.session.Close()
}

func isNormalClosure(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// ToServerMessage flattens a live server message into the fields the
// dispatcher cares about.
func ToServerMessage(msg *genai.LiveServerMessage) *types.ServerMessage {
	out := &types.ServerMessage{}
	if msg == nil {
		return out
	}

	if msg.ToolCall != nil {
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc == nil {
				continue
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}

	sc := msg.ServerContent
	if sc == nil {
		return out
	}
	if sc.InputTranscription != nil {
		out.InputTranscription = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		out.OutputTranscription = sc.OutputTranscription.Text
	}
	out.TurnComplete = sc.TurnComplete
	out.Interrupted = sc.Interrupted

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime != "" && !strings.HasPrefix(mime, "audio/") {
				continue
			}
			out.Audio = append(out.Audio, part.InlineData.Data)
		}
	}
	return out
}
