package drive_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/drive"
	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/common"
)

const serviceName = "drive"

// maxDownloadBytes caps how much file content a download tool call
// returns inline.
const maxDownloadBytes = 1 << 20 // 1 MiB

// RegisterDriveTools registers all Google Drive tools with the MCP
// server. Write tools (upload, folder creation, deletion) are skipped
// in read-only mode.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool := func(tool mcp.Tool, operation string, scopes []string, handler common.ToolHandlerFunc) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.Chain(handler,
			common.WithInstrumentation(tool.Name, serviceName, operation, sc),
			common.WithScopeGuard(sc, scopes...),
			common.WithRetry(3),
		)))
	}

	listTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List or search files in Google Drive"),
		mcp.WithString("query",
			mcp.Description("Drive query, e.g. \"name contains 'report'\" or \"mimeType='application/pdf'\""),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default 25, max 100)"),
		),
		mcp.WithString("orderBy",
			mcp.Description("Sort order, e.g. 'modifiedTime desc,name'"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token for retrieving the next page of results"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(listTool, "list", []string{google.ScopeDriveReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListFiles(ctx, request, sc)
	})

	getTool := mcp.NewTool("drive_get_file",
		mcp.WithDescription("Get metadata for a Drive file"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(getTool, "get", []string{google.ScopeDriveReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetFile(ctx, request, sc)
	})

	downloadTool := mcp.NewTool("drive_download_file",
		mcp.WithDescription("Download the content of a Drive file (up to 1 MiB inline; binary content is base64-encoded)"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(downloadTool, "download", []string{google.ScopeDriveReadonly}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDownloadFile(ctx, request, sc)
	})

	if sc.ReadOnly() {
		return nil
	}

	uploadTool := mcp.NewTool("drive_upload_file",
		mcp.WithDescription("Upload text content as a new Drive file"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name for the new file"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("File content"),
		),
		mcp.WithString("mimeType",
			mcp.Description("MIME type of the content (detected by Drive when omitted)"),
		),
		mcp.WithString("folderId",
			mcp.Description("ID of the destination folder"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(uploadTool, "upload", []string{google.ScopeDriveFile}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUploadFile(ctx, request, sc)
	})

	uploadFromURLTool := mcp.NewTool("drive_upload_from_url",
		mcp.WithDescription("Fetch a public URL and upload its content to Drive. The URL must resolve to a public address; private and internal networks are refused."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http(s) URL to fetch"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name for the new file"),
		),
		mcp.WithString("mimeType",
			mcp.Description("MIME type override (defaults to the Content-Type of the response)"),
		),
		mcp.WithString("folderId",
			mcp.Description("ID of the destination folder"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(uploadFromURLTool, "upload", []string{google.ScopeDriveFile}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUploadFromURL(ctx, request, sc)
	})

	createFolderTool := mcp.NewTool("drive_create_folder",
		mcp.WithDescription("Create a folder in Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name for the new folder"),
		),
		mcp.WithString("parentId",
			mcp.Description("ID of the parent folder"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(createFolderTool, "create", []string{google.ScopeDriveFile}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateFolder(ctx, request, sc)
	})

	deleteTool := mcp.NewTool("drive_delete_file",
		mcp.WithDescription("Move a Drive file to the trash"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithString("account",
			mcp.Description("Account name (defaults to the authenticated user or 'default')"),
		),
	)
	addTool(deleteTool, "delete", []string{google.ScopeDriveFile}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDeleteFile(ctx, request, sc)
	})

	return nil
}

func clientForRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*drive.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(ctx, request.GetArguments())
	client := sc.DriveClientForAccount(account)
	if client == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf(
			"no Google token for account %q; complete the OAuth flow first", account))
	}
	return client, nil
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	options := &drive.ListOptions{MaxResults: 25}
	if query, ok := args["query"].(string); ok {
		options.Query = query
	}
	if orderBy, ok := args["orderBy"].(string); ok {
		options.OrderBy = orderBy
	}
	if pageToken, ok := args["pageToken"].(string); ok {
		options.PageToken = pageToken
	}
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		options.MaxResults = int(v)
		if options.MaxResults > 100 {
			options.MaxResults = 100
		}
	}

	files, nextPage, err := client.ListFiles(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	payload := struct {
		Files         []*drive.FileInfo `json:"files"`
		NextPageToken string            `json:"nextPageToken,omitempty"`
	}{files, nextPage}

	return jsonResult(payload)
}

func handleGetFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	fileID, ok := request.GetArguments()["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	info, err := client.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	return jsonResult(info)
}

func handleDownloadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	fileID, ok := request.GetArguments()["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	body, err := client.DownloadFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer body.Close()

	content, err := io.ReadAll(io.LimitReader(body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if len(content) > maxDownloadBytes {
		return mcp.NewToolResultError(fmt.Sprintf(
			"file exceeds the %d byte inline limit; use the Drive UI or API directly", maxDownloadBytes)), nil
	}

	if utf8.Valid(content) {
		return mcp.NewToolResultText(string(content)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("base64:%s", base64.StdEncoding.EncodeToString(content))), nil
}

func handleUploadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	name, _ := args["name"].(string)
	content, _ := args["content"].(string)
	if name == "" || content == "" {
		return mcp.NewToolResultError("name and content are required"), nil
	}

	options := &drive.UploadOptions{}
	if mimeType, ok := args["mimeType"].(string); ok {
		options.MimeType = mimeType
	}
	if folderID, ok := args["folderId"].(string); ok && folderID != "" {
		options.ParentFolders = []string{folderID}
	}

	info, err := client.UploadFile(ctx, name, strings.NewReader(content), options)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return jsonResult(info)
}

func handleUploadFromURL(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
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
	name, _ := args["name"].(string)
	if rawURL == "" || name == "" {
		return mcp.NewToolResultError("url and name are required"), nil
	}

	options := &drive.UploadOptions{}
	if mimeType, ok := args["mimeType"].(string); ok {
		options.MimeType = mimeType
	}
	if folderID, ok := args["folderId"].(string); ok && folderID != "" {
		options.ParentFolders = []string{folderID}
	}

	fetchCtx, span := common.FetchSpan(ctx, rawURL)
	info, err := client.UploadFromURL(fetchCtx, fetcher, rawURL, name, options)
	instrumentation.SetSpanError(span, err)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("failed to upload from URL: %w", err)
	}

	return jsonResult(info)
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var parents []string
	if parentID, ok := args["parentId"].(string); ok && parentID != "" {
		parents = []string{parentID}
	}

	info, err := client.CreateFolder(ctx, name, parents)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return jsonResult(info)
}

func handleDeleteFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, errResult := clientForRequest(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	fileID, ok := request.GetArguments()["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	if err := client.DeleteFile(ctx, fileID); err != nil {
		return nil, fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("File %s moved to trash", fileID)), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
