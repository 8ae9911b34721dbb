package docs_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/docs"
	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/common"
)

const serviceName = "docs"

// RegisterDocsTools registers all Google Docs tools with the MCP
// server. Write tools (create, import) are skipped in read-only mode.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool := func(tool mcp.Tool, operation string, scopes []string, handler common.ToolHandlerFunc) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.Chain(handler,
			common.WithInstrumentation(tool.Name, serviceName, operation, sc),
			common.WithScopeGuard(sc, scopes...),
			common.WithRetry(3),
		)))
	}

	getDocumentTool := mcp.NewTool("docs_get_document",
		mcp.WithDescription("Get Google Docs content by document ID"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the Google Doc"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'json'"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(getDocumentTool, "get", []string{google.ScopeDocsReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetDocument(ctx, request, sc)
	})

	getMetadataTool := mcp.NewTool("docs_get_document_metadata",
		mcp.WithDescription("Get metadata about a Google Doc or Drive file"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the Google Doc or Drive file"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(getMetadataTool, "get", []string{google.ScopeDriveReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMetadata(ctx, request, sc)
	})

	if sc.ReadOnly() {
		return nil
	}

	createTool := mcp.NewTool("docs_create_document",
		mcp.WithDescription("Create an empty Google Doc"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title for the new document"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(createTool, "create", []string{google.ScopeDocs}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateDocument(ctx, request, sc)
	})

	importTool := mcp.NewTool("docs_import_from_url",
		mcp.WithDescription("Fetch a public URL and import its content as a Google Doc. Supports Markdown, plain text, HTML, DOCX, RTF and ODT sources. The URL must resolve to a public address; private and internal networks are refused."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http(s) URL to fetch"),
		),
		mcp.WithString("fileName",
			mcp.Description("Name for the new document (defaults to a name derived from the URL)"),
		),
		mcp.WithString("format",
			mcp.Description("Source format hint: 'markdown', 'text', 'html', 'docx', 'rtf' or 'odt' (detected from the URL and content when omitted)"),
		),
		mcp.WithString("folderId",
			mcp.Description("ID of the destination folder"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(importTool, "import", []string{google.ScopeDriveFile}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleImportFromURL(ctx, request, sc)
	})

	return nil
}

func clientForRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*docs.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(ctx, request.GetArguments())
	client := sc.DocsClientForAccount(account)
	if client == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf(
			"no Google token for account %q; complete the OAuth flow first", account))
	}
	return client, nil
}

func handleGetDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	format := "text"
	if v, ok := args["format"].(string); ok && v != "" {
		format = v
	}

	switch format {
	case "text":
		content, err := client.GetDocumentAsPlainText(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
		}
		return mcp.NewToolResultText(content), nil

	case "json":
		doc, err := client.GetDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
		}
		return jsonResult(doc)

	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid format %q, must be 'text' or 'json'", format)), nil
	}
}

func handleGetMetadata(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	documentID, ok := request.GetArguments()["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	metadata, err := client.GetFileMetadata(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", documentID, err)
	}

	return jsonResult(metadata)
}

func handleCreateDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	title, ok := request.GetArguments()["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	doc, err := client.CreateDocument(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created document %q (id: %s)", doc.Title, doc.DocumentId)), nil
}

func handleImportFromURL(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	fetcher := sc.Fetcher()
	if fetcher == nil {
		return mcp.NewToolResultError("URL fetching is not enabled on this server"), nil
	}

	args := request.GetArguments()
	rawURL, _ := args["url"].(string)
	if rawURL == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	fileName, _ := args["fileName"].(string)
	formatHint, _ := args["format"].(string)
	folderID, _ := args["folderId"].(string)

	fetchCtx, span := common.FetchSpan(ctx, rawURL)
	result, err := client.ImportFromURL(fetchCtx, fetcher, rawURL, fileName, formatHint, folderID)
	instrumentation.SetSpanError(span, err)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("failed to import from URL: %w", err)
	}

	return jsonResult(result)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
