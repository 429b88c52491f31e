package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const ticketAnalysisTemplate = `
You are a helpful Zendesk support analyst. You've been asked to analyze ticket #%s.

Please fetch the ticket info and comments to analyze it and provide:
1. A summary of the issue
2. The current status and timeline
3. Key points of interaction

Remember to be professional and focus on actionable insights.
`

const commentDraftTemplate = `
You are a helpful Zendesk support agent. You need to draft a response to ticket #%s.

Please fetch the ticket info, comments and knowledge base to draft a professional and helpful response that:
1. Acknowledges the customer's concern
2. Addresses the specific issues raised
3. Provides clear next steps or ask for specific details need to proceed
4. Maintains a friendly and professional tone
5. Ask for confirmation before commenting on the ticket

The response should be formatted well and ready to be posted as a comment.
`

func registerPrompts(srv *server.MCPServer) {
	srv.AddPrompt(
		mcp.NewPrompt("analyze-ticket",
			mcp.WithPromptDescription("Analyze a Zendesk ticket and provide insights"),
			mcp.WithArgument("ticket_id",
				mcp.RequiredArgument(),
				mcp.ArgumentDescription("The ID of the ticket to analyze"),
			),
		),
		promptHandler("Analysis prompt for ticket #%s", ticketAnalysisTemplate),
	)

	srv.AddPrompt(
		mcp.NewPrompt("draft-ticket-response",
			mcp.WithPromptDescription("Draft a professional response to a Zendesk ticket"),
			mcp.WithArgument("ticket_id",
				mcp.RequiredArgument(),
				mcp.ArgumentDescription("The ID of the ticket to respond to"),
			),
		),
		promptHandler("Response draft prompt for ticket #%s", commentDraftTemplate),
	)
}

// promptHandler renders a canned template parameterized by ticket_id.
// The template is handed to the agent's reasoning layer, not executed
// here.
func promptHandler(descriptionFormat, template string) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		ticketID := req.Params.Arguments["ticket_id"]
		if ticketID == "" {
			return nil, fmt.Errorf("missing required argument: ticket_id")
		}

		text := strings.TrimSpace(fmt.Sprintf(template, ticketID))
		return mcp.NewGetPromptResult(
			fmt.Sprintf(descriptionFormat, ticketID),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	}
}
