package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/model"
)

// liveServer accepts one websocket connection and counts inbound frames.
func liveServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var received atomic.Int64
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func dialLive(t *testing.T, srv *httptest.Server) Transport {
	t.Helper()
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  "test-key",
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    "ws://" + strings.TrimPrefix(srv.URL, "http://"),
			APIVersion: "v1beta",
		},
	})
	require.NoError(t, err)

	connector, err := NewGeminiConnector(client, "gemini-live-test")
	require.NoError(t, err)

	tr, err := connector.Connect(ctx, SessionConfig{SystemInstruction: "test", Voice: "Puck"})
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestGeminiTransportConcurrentSends(t *testing.T) {
	srv, received := liveServer(t)
	tr := dialLive(t, srv)

	const perSide = 200
	frame := model.MediaFrame{
		Data:     audio.EncodeText(audio.SamplesToBytes(make([]float32, 256))),
		MIMEType: "audio/pcm;rate=16000",
	}
	reply := []model.ToolResponse{{
		ID:       "call-1",
		Name:     SystemCommandFunction,
		Response: map[string]any{"result": "ok"},
	}}

	var wg sync.WaitGroup
	errs := make(chan error, 2*perSide)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			errs <- tr.SendMedia(frame)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			errs <- tr.SendToolResponse(reply)
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// setup message plus every send
	assert.Eventually(t, func() bool {
		return received.Load() == 1+2*perSide
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGeminiTransportSendAfterClose(t *testing.T) {
	srv, _ := liveServer(t)
	tr := dialLive(t, srv)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	assert.ErrorIs(t, tr.SendMedia(model.MediaFrame{}), ErrClosed)
	assert.ErrorIs(t, tr.SendToolResponse(nil), ErrClosed)
}
