package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/logger"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	ChannelName string `json:"channel_name"`
	Query       string `json:"query"`
}

// SearchResponse is the result of POST /search.
type SearchResponse struct {
	Channel  string `json:"channel"`
	Query    string `json:"query"`
	Matches  int    `json:"matches"`
	Relevant bool   `json:"relevant"`
	// Summary is null when nothing relevant was found.
	Summary *string `json:"summary"`
}

// ChannelStatus is one entry of GET /status.
type ChannelStatus struct {
	Channel              string    `json:"channel"`
	State                string    `json:"state"`
	Streaming            bool      `json:"streaming"`
	Sequence             int64     `json:"sequence"`
	Reconnects           int       `json:"reconnects"`
	PingInterval         string    `json:"ping_interval"`
	LastReconnectAttempt time.Time `json:"last_reconnect_attempt,omitzero"`
	LastError            string    `json:"last_error,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitzero"`
}

// StatusResponse is the body of GET /status and each /ws message.
type StatusResponse struct {
	Channels []ChannelStatus `json:"channels"`
	At       time.Time       `json:"at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ChannelName) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "channel_name is required"})
		return
	}

	result, err := s.ports.Monitor.Search(r.Context(), req.ChannelName, req.Query)
	if err != nil {
		logger.With("channel", req.ChannelName).Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}

	resp := SearchResponse{
		Channel:  result.ChannelID,
		Query:    result.Query,
		Matches:  result.Matches,
		Relevant: result.Relevant,
	}
	if result.Relevant {
		resp.Summary = &result.Summary
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatusFeed pushes a status snapshot on connect, then checks every
// statusInterval and pushes again only when a channel's state changed.
func (s *Server) handleStatusFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn("websocket accept: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	// Reads are not expected; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	var sent []ChannelStatus
	for {
		snap := s.snapshot()
		if sent == nil || !slices.Equal(sent, snap.Channels) {
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				logger.Debug("websocket write: %v", err)
				return
			}
			sent = snap.Channels
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) snapshot() StatusResponse {
	resp := StatusResponse{Channels: []ChannelStatus{}, At: time.Now()}
	if s.ports.Capture == nil {
		return resp
	}
	for _, st := range s.ports.Capture.Status() {
		resp.Channels = append(resp.Channels, channelStatus(st))
	}
	return resp
}

func channelStatus(st domain.ChannelWatchState) ChannelStatus {
	return ChannelStatus{
		Channel:              st.ChannelID,
		State:                string(st.State),
		Streaming:            st.IsStreaming,
		Sequence:             st.CurrentSequence,
		Reconnects:           st.Reconnects,
		PingInterval:         st.PingInterval.String(),
		LastReconnectAttempt: st.LastReconnectAttempt,
		LastError:            st.LastError,
		UpdatedAt:            st.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("writing response: %v", err)
	}
}
