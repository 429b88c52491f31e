package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mcppkg "github.com/mark3labs/mcp-go/mcp"

	"github.com/supportfoundry/zendesk-mcp/internal/kb"
	"github.com/supportfoundry/zendesk-mcp/internal/zendesk"
)

func readRequest(uri string) mcppkg.ReadResourceRequest {
	req := mcppkg.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestHandleKnowledgeBase(t *testing.T) {
	api := &fakeBackend{
		fetchKnowledge: func(ctx context.Context) (zendesk.KnowledgeBase, error) {
			return zendesk.KnowledgeBase{
				"Billing": {
					SectionID: 1,
					Articles: []zendesk.Article{
						{ID: 10, Title: "Refund policy"},
						{ID: 11, Title: "Invoices"},
					},
				},
			}, nil
		},
	}
	srv := &Server{api: api, cache: kb.New(api, time.Hour), logger: testLogger()}

	contents, err := srv.handleKnowledgeBase(context.Background(), readRequest(knowledgeBaseURI))
	if err != nil {
		t.Fatalf("resource handler error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}

	text, ok := contents[0].(mcppkg.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected contents type %T", contents[0])
	}
	if text.URI != knowledgeBaseURI || text.MIMEType != "application/json" {
		t.Fatalf("uri = %q mime = %q", text.URI, text.MIMEType)
	}

	var payload struct {
		KnowledgeBase map[string]zendesk.SectionArticles `json:"knowledge_base"`
		Metadata      struct {
			Sections      int    `json:"sections"`
			TotalArticles int    `json:"total_articles"`
			SnapshotID    string `json:"snapshot_id"`
			FetchedAt     string `json:"fetched_at"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("decode resource payload: %v", err)
	}
	if payload.Metadata.Sections != 1 || payload.Metadata.TotalArticles != 2 {
		t.Fatalf("metadata = %+v", payload.Metadata)
	}
	if payload.Metadata.SnapshotID == "" {
		t.Fatal("missing snapshot id")
	}
	if _, err := time.Parse(time.RFC3339, payload.Metadata.FetchedAt); err != nil {
		t.Fatalf("fetched_at = %q: %v", payload.Metadata.FetchedAt, err)
	}
	if len(payload.KnowledgeBase["Billing"].Articles) != 2 {
		t.Fatalf("payload = %+v", payload.KnowledgeBase)
	}
}

func TestHandleKnowledgeBasePropagatesFetchError(t *testing.T) {
	api := &fakeBackend{
		fetchKnowledge: func(ctx context.Context) (zendesk.KnowledgeBase, error) {
			return nil, errors.New("help center unavailable")
		},
	}
	srv := &Server{api: api, cache: kb.New(api, time.Hour), logger: testLogger()}

	if _, err := srv.handleKnowledgeBase(context.Background(), readRequest(knowledgeBaseURI)); err == nil {
		t.Fatal("expected error from failed fetch")
	}
}
