package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const knowledgeBaseURI = "zendesk://knowledge-base"

func registerResources(srv *server.MCPServer, s *Server) {
	srv.AddResource(
		mcp.NewResource(
			knowledgeBaseURI,
			"Zendesk Knowledge Base",
			mcp.WithResourceDescription("Access to Zendesk Help Center articles and sections"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleKnowledgeBase,
	)
}

// handleKnowledgeBase serves the cached help-center snapshot. The
// cache refreshes at most once an hour, so agents can re-read this
// resource freely while drafting responses.
func (s *Server) handleKnowledgeBase(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.logger.Debug("reading knowledge base resource", "uri", req.Params.URI)

	snapshot, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Error("knowledge base fetch failed", "error", err)
		return nil, fmt.Errorf("fetch knowledge base: %w", err)
	}

	payload := map[string]any{
		"knowledge_base": snapshot.Sections,
		"metadata": map[string]any{
			"sections":       len(snapshot.Sections),
			"total_articles": snapshot.TotalArticles(),
			"snapshot_id":    snapshot.ID,
			"fetched_at":     snapshot.FetchedAt.UTC().Format(time.RFC3339),
		},
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal knowledge base: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
