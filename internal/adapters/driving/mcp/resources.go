package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/onair/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for onair resources.
	uriScheme = "onair://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing channels.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "channels",
		Name:        "channels",
		Description: "List of all configured broadcast channels",
		MIMEType:    "application/json",
	}, s.handleChannelsResource)

	// Template for capture state of one channel.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "channels/{channelId}/status",
		Name:        "channel-status",
		Description: "Capture state of a specific channel",
		MIMEType:    "application/json",
	}, s.handleChannelStatusResource)
}

type channelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	URI  string `json:"uri"`
}

type channelStatus struct {
	ID                   string    `json:"id"`
	State                string    `json:"state"`
	Streaming            bool      `json:"streaming"`
	Sequence             int64     `json:"sequence"`
	Reconnects           int       `json:"reconnects"`
	LastReconnectAttempt time.Time `json:"last_reconnect_attempt,omitzero"`
	LastError            string    `json:"last_error,omitempty"`
}

// handleChannelsResource returns a list of all configured channels.
func (s *Server) handleChannelsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := make([]channelInfo, len(s.ports.Channels))
	for i, ch := range s.ports.Channels {
		infos[i] = channelInfo{
			ID:   ch.ID,
			Name: ch.DisplayName(),
			Kind: string(ch.Kind),
			URI:  uriScheme + "channels/" + ch.ID + "/status",
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleChannelStatusResource returns the capture state of a channel.
func (s *Server) handleChannelStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Capture == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract channelId from URI: onair://channels/{channelId}/status
	channelID := extractChannelID(req.Params.URI)
	if channelID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, st := range s.ports.Capture.Status() {
		if st.ChannelID == channelID {
			return jsonResult(req.Params.URI, statusFromState(st))
		}
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func statusFromState(st domain.ChannelWatchState) channelStatus {
	return channelStatus{
		ID:                   st.ChannelID,
		State:                string(st.State),
		Streaming:            st.IsStreaming,
		Sequence:             st.CurrentSequence,
		Reconnects:           st.Reconnects,
		LastReconnectAttempt: st.LastReconnectAttempt,
		LastError:            st.LastError,
	}
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChannelID extracts the channel ID from a URI like onair://channels/{channelId}/status.
func extractChannelID(uri string) string {
	const prefix = uriScheme + "channels/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
