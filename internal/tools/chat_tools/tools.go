package chat_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/chat"
	"workspacemcp/internal/google"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/common"
)

const serviceName = "chat"

// RegisterChatTools registers all Google Chat tools with the MCP
// server. The send tool is skipped in read-only mode.
func RegisterChatTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool := func(tool mcp.Tool, operation string, scopes []string, handler common.ToolHandlerFunc) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.Chain(handler,
			common.WithInstrumentation(tool.Name, serviceName, operation, sc),
			common.WithScopeGuard(sc, scopes...),
			common.WithRetry(3),
		)))
	}

	listSpacesTool := mcp.NewTool("chat_list_spaces",
		mcp.WithDescription("List the Google Chat spaces the account is a member of"),
		mcp.WithNumber("pageSize",
			mcp.Description("Maximum number of spaces to return (default 50)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token for retrieving the next page of results"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(listSpacesTool, "list", []string{google.ScopeChatSpacesReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListSpaces(ctx, request, sc)
	})

	listMessagesTool := mcp.NewTool("chat_list_messages",
		mcp.WithDescription("List messages in a Chat space, newest first"),
		mcp.WithString("space",
			mcp.Required(),
			mcp.Description("Space resource name ('spaces/AAAA1234') or bare space ID"),
		),
		mcp.WithNumber("pageSize",
			mcp.Description("Maximum number of messages to return (default 25)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token for retrieving the next page of results"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(listMessagesTool, "list", []string{google.ScopeChatMessagesReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMessages(ctx, request, sc)
	})

	if sc.ReadOnly() {
		return nil
	}

	sendTool := mcp.NewTool("chat_send_message",
		mcp.WithDescription("Send a plain-text message to a Chat space"),
		mcp.WithString("space",
			mcp.Required(),
			mcp.Description("Space resource name ('spaces/AAAA1234') or bare space ID"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Message text"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(sendTool, "send", []string{google.ScopeChatMessages}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSendMessage(ctx, request, sc)
	})

	return nil
}

func clientForRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*chat.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(ctx, request.GetArguments())
	client := sc.ChatClientForAccount(account)
	if client == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf(
			"no Google token for account %q; complete the OAuth flow first", account))
	}
	return client, nil
}

func handleListSpaces(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	pageSize := int64(50)
	if v, ok := args["pageSize"].(float64); ok && v > 0 {
		pageSize = int64(v)
	}
	pageToken, _ := args["pageToken"].(string)

	spaces, nextPage, err := client.ListSpaces(ctx, pageSize, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	payload := struct {
		Spaces        []*chat.Space `json:"spaces"`
		NextPageToken string        `json:"nextPageToken,omitempty"`
	}{spaces, nextPage}

	return jsonResult(payload)
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	space, ok := args["space"].(string)
	if !ok || space == "" {
		return mcp.NewToolResultError("space is required"), nil
	}

	pageSize := int64(25)
	if v, ok := args["pageSize"].(float64); ok && v > 0 {
		pageSize = int64(v)
	}
	pageToken, _ := args["pageToken"].(string)

	messages, nextPage, err := client.ListMessages(ctx, space, pageSize, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	payload := struct {
		Messages      []*chat.Message `json:"messages"`
		NextPageToken string          `json:"nextPageToken,omitempty"`
	}{messages, nextPage}

	return jsonResult(payload)
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	space, _ := args["space"].(string)
	text, _ := args["text"].(string)
	if space == "" || text == "" {
		return mcp.NewToolResultError("space and text are required"), nil
	}

	message, err := client.SendMessage(ctx, space, text)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return jsonResult(message)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
