// Package api is the local HTTP control surface of the daemon: every HUD
// action, the HUD websocket feed and the Prometheus endpoint.
package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrsingh-rishi/brahmastra/assistant"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/output"
)

// Controller is what the routes drive. *assistant.Assistant implements it.
type Controller interface {
	Snapshot() (model.Snapshot, error)
	StartSession() error
	StopSession() error
	SetMuted(muted bool) error
	ToggleMute() (bool, error)
	AddProtocol(phrase, action string) (model.Protocol, error)
	RemoveProtocol(id string) error
	AddMemory(text string) error
	RemoveMemory(index int) error
	ClearHistory() error
	SearchHistory(query string) ([]model.ConversationTurn, error)
	SearchScriptures(ctx context.Context, query string) (*model.ScriptureResult, error)
}

type protocolRequest struct {
	Phrase string `json:"phrase"`
	Action string `json:"action"`
}

type memoryRequest struct {
	Text string `json:"text"`
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type Server struct {
	app  *fiber.App
	ctrl Controller
	hud  *output.HUD
}

func NewServer(ctrl Controller, hud *output.HUD, gatherer prometheus.Gatherer) (*Server, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if hud == nil {
		return nil, fmt.Errorf("hud is required")
	}
	if gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer is required")
	}

	s := &Server{
		app:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		ctrl: ctrl,
		hud:  hud,
	}
	s.routes(gatherer)
	return s, nil
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	logger.Info("HUD control surface listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v := s.app.Group("/api")
	v.Get("/state", s.state)
	v.Post("/session/start", s.startSession)
	v.Post("/session/stop", s.stopSession)
	v.Put("/mute", s.setMute)
	v.Post("/mute/toggle", s.toggleMute)

	v.Get("/protocols", s.listProtocols)
	v.Post("/protocols", s.addProtocol)
	v.Delete("/protocols/:id", s.removeProtocol)

	v.Get("/memories", s.listMemories)
	v.Post("/memories", s.addMemory)
	v.Delete("/memories/:index", s.removeMemory)

	v.Get("/history", s.searchHistory)
	v.Delete("/history", s.clearHistory)

	v.Post("/scriptures", s.searchScriptures)

	// Require a websocket upgrade on /hud
	s.app.Use("/hud", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/hud", websocket.New(func(ws *websocket.Conn) {
		s.hud.Serve(ws)
	}))
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, assistant.ErrInvalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, assistant.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, assistant.ErrNotRunning):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrSearchUnavailable):
		status = fiber.StatusNotImplemented
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) snapshot(c *fiber.Ctx, status int) error {
	snap, err := s.ctrl.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	return c.Status(status).JSON(snap)
}

func (s *Server) state(c *fiber.Ctx) error {
	return s.snapshot(c, fiber.StatusOK)
}

func (s *Server) startSession(c *fiber.Ctx) error {
	if err := s.ctrl.StartSession(); err != nil {
		return fail(c, err)
	}
	return s.snapshot(c, fiber.StatusAccepted)
}

func (s *Server) stopSession(c *fiber.Ctx) error {
	if err := s.ctrl.StopSession(); err != nil {
		return fail(c, err)
	}
	return s.snapshot(c, fiber.StatusOK)
}

func (s *Server) setMute(c *fiber.Ctx) error {
	var req muteRequest
	if err := c.BodyParser(&req); err != nil || req.Muted == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`muted` field is required"})
	}
	if err := s.ctrl.SetMuted(*req.Muted); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"muted": *req.Muted})
}

func (s *Server) toggleMute(c *fiber.Ctx) error {
	muted, err := s.ctrl.ToggleMute()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"muted": muted})
}

func (s *Server) listProtocols(c *fiber.Ctx) error {
	snap, err := s.ctrl.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(snap.Protocols)
}

func (s *Server) addProtocol(c *fiber.Ctx) error {
	var req protocolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	p, err := s.ctrl.AddProtocol(req.Phrase, req.Action)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (s *Server) removeProtocol(c *fiber.Ctx) error {
	if err := s.ctrl.RemoveProtocol(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listMemories(c *fiber.Ctx) error {
	snap, err := s.ctrl.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(snap.Memories)
}

func (s *Server) addMemory(c *fiber.Ctx) error {
	var req memoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := s.ctrl.AddMemory(req.Text); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) removeMemory(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "index must be an integer"})
	}
	if err := s.ctrl.RemoveMemory(index); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) searchHistory(c *fiber.Ctx) error {
	turns, err := s.ctrl.SearchHistory(c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(turns)
}

func (s *Server) clearHistory(c *fiber.Ctx) error {
	if err := s.ctrl.ClearHistory(); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) searchScriptures(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	result, err := s.ctrl.SearchScriptures(c.UserContext(), req.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrInvalid) || errors.Is(err, assistant.ErrSearchUnavailable) || errors.Is(err, assistant.ErrNotRunning) {
			return fail(c, err)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "scripture search failed"})
	}
	return c.JSON(result)
}
