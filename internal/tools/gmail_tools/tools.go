package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/gmail"
	"workspacemcp/internal/google"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/common"
)

const serviceName = "gmail"

// RegisterGmailTools registers all Gmail tools with the MCP server.
// Write tools (send, label modification) are skipped in read-only mode.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool := func(tool mcp.Tool, operation string, scopes []string, handler common.ToolHandlerFunc) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.Chain(handler,
			common.WithInstrumentation(tool.Name, serviceName, operation, sc),
			common.WithScopeGuard(sc, scopes...),
			common.WithRetry(3),
		)))
	}

	listTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a search query"),
		mcp.WithString("query",
			mcp.Description("Gmail search query, e.g. 'from:alice is:unread'"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default 25, max 100)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token for retrieving the next page of results"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(listTool, "list", []string{google.ScopeGmailReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMessages(ctx, request, sc)
	})

	getTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get a Gmail message with headers and decoded body"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(getTool, "get", []string{google.ScopeGmailReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMessage(ctx, request, sc)
	})

	labelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List the Gmail labels of the account"),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(labelsTool, "list", []string{google.ScopeGmailReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListLabels(ctx, request, sc)
	})

	if sc.ReadOnly() {
		return nil
	}

	sendTool := mcp.NewTool("gmail_send_message",
		mcp.WithDescription("Send an email from the account"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated BCC addresses"),
		),
		mcp.WithBoolean("isHtml",
			mcp.Description("Treat the body as HTML instead of plain text"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(sendTool, "send", []string{google.ScopeGmailSend}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSendMessage(ctx, request, sc)
	})

	modifyTool := mcp.NewTool("gmail_modify_labels",
		mcp.WithDescription("Add or remove labels on a Gmail message"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message"),
		),
		mcp.WithString("addLabelIds",
			mcp.Description("Comma-separated label IDs to add"),
		),
		mcp.WithString("removeLabelIds",
			mcp.Description("Comma-separated label IDs to remove"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(modifyTool, "modify", []string{google.ScopeGmailModify}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleModifyLabels(ctx, request, sc)
	})

	return nil
}

func clientForRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*gmail.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(ctx, request.GetArguments())
	client := sc.GmailClientForAccount(account)
	if client == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf(
			"no Google token for account %q; complete the OAuth flow first", account))
	}
	return client, nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	query, _ := args["query"].(string)
	pageToken, _ := args["pageToken"].(string)

	maxResults := int64(25)
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		maxResults = int64(v)
		if maxResults > 100 {
			maxResults = 100
		}
	}

	messages, nextPage, err := client.ListMessages(ctx, query, maxResults, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	payload := struct {
		Messages      []*gmail.MessageSummary `json:"messages"`
		NextPageToken string                  `json:"nextPageToken,omitempty"`
	}{messages, nextPage}

	return jsonResult(payload)
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	messageID, ok := request.GetArguments()["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	message, err := client.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	return jsonResult(message)
}

func handleListLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	labels, err := client.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	return jsonResult(labels)
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if to == "" || subject == "" || body == "" {
		return mcp.NewToolResultError("to, subject and body are required"), nil
	}

	req := &gmail.SendRequest{
		To:      splitAddresses(to),
		Subject: subject,
		Body:    body,
	}
	if cc, ok := args["cc"].(string); ok {
		req.Cc = splitAddresses(cc)
	}
	if bcc, ok := args["bcc"].(string); ok {
		req.Bcc = splitAddresses(bcc)
	}
	if isHTML, ok := args["isHtml"].(bool); ok {
		req.IsHTML = isHTML
	}

	messageID, err := client.SendMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent (id: %s)", messageID)), nil
}

func handleModifyLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	addLabels := splitList(args["addLabelIds"])
	removeLabels := splitList(args["removeLabelIds"])
	if len(addLabels) == 0 && len(removeLabels) == 0 {
		return mcp.NewToolResultError("at least one of addLabelIds or removeLabelIds is required"), nil
	}

	summary, err := client.ModifyLabels(ctx, messageID, addLabels, removeLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to modify labels on %s: %w", messageID, err)
	}

	return jsonResult(summary)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
