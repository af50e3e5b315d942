package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/brahmastra/assistant"
	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/device"
	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/llm/llmtest"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/output"
	"github.com/mrsingh-rishi/brahmastra/store"
)

type testServer struct {
	srv      *Server
	hud      *output.HUD
	conn     *llmtest.Connector
	searcher *llmtest.Searcher
}

func setup(t *testing.T) *testServer {
	t.Helper()
	backend, err := store.NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	st, err := store.New(backend)
	require.NoError(t, err)

	hud, err := output.NewHUD(time.Hour)
	require.NoError(t, err)
	t.Cleanup(hud.Stop)

	reg := prometheus.NewRegistry()
	ts := &testServer{hud: hud, conn: &llmtest.Connector{}, searcher: &llmtest.Searcher{}}
	a, err := assistant.New(assistant.Options{
		Store:              st,
		Connector:          ts.conn,
		Searcher:           ts.searcher,
		Devices:            &device.Files{Realtime: true},
		Scheduler:          audio.NewScheduler(24000, 50*time.Millisecond),
		Metrics:            metrics.NewMetrics(reg),
		Publisher:          hud,
		Voice:              "Puck",
		InputRate:          16000,
		ChunkFrames:        4096,
		OutputFrames:       960,
		ResponseClearDelay: time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ts.srv, err = NewServer(a, hud, reg)
	require.NoError(t, err)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.srv.App().Test(req, 5000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestStateEndpoint(t *testing.T) {
	ts := setup(t)
	resp, body := ts.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "DISCONNECTED", snap.Status)
	assert.Equal(t, assistant.InitialStats, snap.Stats)
	assert.Len(t, snap.Protocols, 2)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	ts := setup(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/session/start", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return ts.conn.Last() != nil }, 3*time.Second, 10*time.Millisecond)

	resp, body := ts.do(t, http.MethodPost, "/api/session/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "DISCONNECTED", snap.Status)
}

func TestMuteEndpoints(t *testing.T) {
	ts := setup(t)

	resp, body := ts.do(t, http.MethodPost, "/api/mute/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"muted":true}`, string(body))

	resp, body = ts.do(t, http.MethodPut, "/api/mute", map[string]bool{"muted": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"muted":false}`, string(body))

	resp, _ = ts.do(t, http.MethodPut, "/api/mute", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtocolEndpoints(t *testing.T) {
	ts := setup(t)

	resp, body := ts.do(t, http.MethodPost, "/api/protocols", protocolRequest{Phrase: "Go dark", Action: "Mute everything."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Protocol
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Go dark", p.Phrase)

	resp, body = ts.do(t, http.MethodGet, "/api/protocols", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Protocol
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 3)

	resp, _ = ts.do(t, http.MethodPost, "/api/protocols", protocolRequest{Phrase: "only phrase"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/protocols/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, "/api/protocols/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMemoryEndpoints(t *testing.T) {
	ts := setup(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/memories", memoryRequest{Text: "Boss likes chai."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/memories/0", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, "/api/memories/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, "/api/memories/9", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := ts.do(t, http.MethodGet, "/api/memories", nil)
	assert.JSONEq(t, `["Admin access granted.","Boss likes chai."]`, string(body))
}

func TestHistoryEndpoints(t *testing.T) {
	ts := setup(t)

	resp, body := ts.do(t, http.MethodGet, "/api/history?q=gita", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = ts.do(t, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestScriptureEndpoint(t *testing.T) {
	ts := setup(t)
	ts.searcher.Result = llm.NewScriptureResult("Karmanye vadhikaraste", nil)

	resp, body := ts.do(t, http.MethodPost, "/api/scriptures", searchRequest{Query: "duty"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res model.ScriptureResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "Deep Scriptural Index", res.Source)

	resp, _ = ts.do(t, http.MethodPost, "/api/scriptures", searchRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.searcher.Err = errors.New("quota exceeded")
	resp, _ = ts.do(t, http.MethodPost, "/api/scriptures", searchRequest{Query: "karma"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setup(t)
	resp, body := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "brahmastra_session_status")
}

func TestHUDRequiresUpgrade(t *testing.T) {
	ts := setup(t)
	resp, _ := ts.do(t, http.MethodGet, "/hud", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestHUDWebsocketFeed(t *testing.T) {
	ts := setup(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go ts.srv.App().Listener(ln)
	t.Cleanup(func() { ts.srv.Shutdown() })

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/hud", nil)
	require.NoError(t, err)
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.Eventually(t, func() bool { return ts.hud.Clients() == 1 }, 3*time.Second, 5*time.Millisecond)

	resp, _ := ts.do(t, http.MethodPost, "/api/memories", memoryRequest{Text: "Remember the Gita."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ev output.Event
	for {
		require.NoError(t, ws.ReadJSON(&ev))
		if ev.Event == output.EventSnapshot && len(ev.Snapshot.Memories) == 3 {
			break
		}
	}
	assert.Equal(t, "DISCONNECTED", ev.Snapshot.Status)
	assert.Equal(t, "Remember the Gita.", ev.Snapshot.Memories[2])
}
