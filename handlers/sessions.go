// ABOUTME: Session MCP tool handlers
// ABOUTME: Implements start_session, end_session, session_status, record_location, convert_session, and list_sessions
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SessionHandlers struct {
	svc         *fieldwork.Service
	salesperson string
}

// NewSessionHandlers uses salesperson whenever a tool call leaves it out.
func NewSessionHandlers(svc *fieldwork.Service, salesperson string) *SessionHandlers {
	return &SessionHandlers{svc: svc, salesperson: salesperson}
}

func (h *SessionHandlers) resolveSalesperson(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if h.salesperson != "" {
		return h.salesperson, nil
	}
	return "", fmt.Errorf("salesperson is required")
}

type StartSessionInput struct {
	Kind        string `json:"kind" jsonschema:"Session type: visit or canvassing (required)"`
	Salesperson string `json:"salesperson,omitempty" jsonschema:"Salesperson running the session (defaults to the configured salesperson)"`
}

func (h *SessionHandlers) StartSession(ctx context.Context, _ *mcp.CallToolRequest, input StartSessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	salesperson, err := h.resolveSalesperson(input.Salesperson)
	if err != nil {
		return nil, SessionOutput{}, err
	}

	switch models.SessionKind(input.Kind) {
	case models.KindVisit:
		vs := h.svc.StartVisitSession(ctx, salesperson)
		return nil, sessionToOutput(models.NewVisitVariant(vs)), nil
	case models.KindCanvassing:
		cs := h.svc.StartCanvassingSession(ctx, salesperson)
		return nil, sessionToOutput(models.NewCanvassingVariant(cs)), nil
	default:
		return nil, SessionOutput{}, fmt.Errorf("kind must be %q or %q", models.KindVisit, models.KindCanvassing)
	}
}

type EmptyInput struct{}

type EndSessionOutput struct {
	Ended   bool           `json:"ended"`
	Session *SessionOutput `json:"session,omitempty"`
}

func (h *SessionHandlers) EndSession(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, EndSessionOutput, error) {
	s, ok := h.svc.EndSession()
	if !ok {
		return nil, EndSessionOutput{}, nil
	}
	out := sessionToOutput(s)
	return nil, EndSessionOutput{Ended: true, Session: &out}, nil
}

type StatusOutput struct {
	Active   bool           `json:"active"`
	Elapsed  string         `json:"elapsed"`
	Session  *SessionOutput `json:"session,omitempty"`
	Lat      *float64       `json:"lat,omitempty"`
	Lng      *float64       `json:"lng,omitempty"`
	Tracking bool           `json:"tracking"`
}

func (h *SessionHandlers) SessionStatus(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, StatusOutput, error) {
	st := h.svc.Status()
	out := StatusOutput{Elapsed: st.Elapsed, Tracking: st.Tracking}
	if st.Session != nil {
		s := sessionToOutput(*st.Session)
		out.Session = &s
		out.Active = true
	}
	if st.Position != nil {
		lat, lng := st.Position.Lat, st.Position.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	return nil, out, nil
}

type RecordLocationInput struct {
	Lat float64 `json:"lat" jsonschema:"Latitude in degrees (required)"`
	Lng float64 `json:"lng" jsonschema:"Longitude in degrees (required)"`
}

func (h *SessionHandlers) RecordLocation(_ context.Context, _ *mcp.CallToolRequest, input RecordLocationInput) (*mcp.CallToolResult, StatusOutput, error) {
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		return nil, StatusOutput{}, fmt.Errorf("coordinates out of range: %f,%f", input.Lat, input.Lng)
	}
	h.svc.SetPosition(input.Lat, input.Lng)
	return h.SessionStatus(context.Background(), nil, EmptyInput{})
}

type ConvertSessionOutput struct {
	Converted bool           `json:"converted"`
	Session   *SessionOutput `json:"session,omitempty"`
}

func (h *SessionHandlers) ConvertSession(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, ConvertSessionOutput, error) {
	vs, ok := h.svc.ConvertToVisitSession()
	if !ok {
		return nil, ConvertSessionOutput{}, nil
	}
	out := sessionToOutput(models.NewVisitVariant(vs))
	return nil, ConvertSessionOutput{Converted: true, Session: &out}, nil
}

type ListSessionsInput struct {
	Salesperson string `json:"salesperson,omitempty" jsonschema:"Salesperson whose sessions to list (defaults to the configured salesperson)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum number of sessions, newest first (default 20)"`
}

type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
}

func (h *SessionHandlers) ListSessions(_ context.Context, _ *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
	salesperson, err := h.resolveSalesperson(input.Salesperson)
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	sessions := h.svc.Tracker().SessionsForUser(salesperson)
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	out := make([]SessionOutput, len(sessions))
	for i, s := range sessions {
		out[i] = sessionToOutput(s)
	}
	return nil, ListSessionsOutput{Sessions: out}, nil
}

type GetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID (required)"`
}

type GetSessionOutput struct {
	Session SessionOutput `json:"session"`
	Visits  []VisitOutput `json:"visits"`
}

func (h *SessionHandlers) GetSession(_ context.Context, _ *mcp.CallToolRequest, input GetSessionInput) (*mcp.CallToolResult, GetSessionOutput, error) {
	s, ok := h.svc.Tracker().SessionByID(input.SessionID)
	if !ok {
		return nil, GetSessionOutput{}, fmt.Errorf("session not found: %s", input.SessionID)
	}
	visits := h.svc.Visits().ForSession(input.SessionID)
	out := GetSessionOutput{Session: sessionToOutput(s), Visits: make([]VisitOutput, len(visits))}
	for i, v := range visits {
		out.Visits[i] = visitToOutput(v)
	}
	return nil, out, nil
}
