package docs

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"workspacemcp/internal/google"
	"workspacemcp/internal/safefetch"
)

// Client wraps the Google Docs and Drive API services. Drive is needed
// because document import and metadata go through the Drive API.
type Client struct {
	docsService  *docs.Service
	driveService *drive.Service
	account      string
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccount creates a Google Docs client authenticated for the
// specified account, with the OAuth token coming from the provider.
func NewClientForAccount(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	conf := google.GetOAuthConfig()
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	// Force HTTP/1.1; some Google endpoints misbehave over HTTP/2.
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	docsService, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{
		docsService:  docsService,
		driveService: driveService,
		account:      account,
	}, nil
}

// NewClient creates a Docs client for the default account.
func NewClient(ctx context.Context, tokenProvider google.TokenProvider) (*Client, error) {
	return NewClientForAccount(ctx, google.DefaultAccount, tokenProvider)
}

// GetDocument retrieves a Google Doc by document ID, including all tabs
// for documents using the tabbed structure.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("documentID is required")
	}

	doc, err := c.docsService.Documents.Get(documentID).
		Context(ctx).
		IncludeTabsContent(true).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}

	return doc, nil
}

// GetDocumentAsPlainText extracts plain text from a Google Doc.
func (c *Client) GetDocumentAsPlainText(ctx context.Context, documentID string) (string, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	return DocumentToPlainText(doc)
}

// CreateDocument creates a new empty Google Doc with the given title.
func (c *Client) CreateDocument(ctx context.Context, title string) (*docs.Document, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	doc, err := c.docsService.Documents.Create(&docs.Document{Title: title}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return doc, nil
}

// GetFileMetadata retrieves metadata for any Google Drive file.
func (c *Client) GetFileMetadata(ctx context.Context, fileID string) (*DocumentMetadata, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	file, err := c.driveService.Files.Get(fileID).
		Context(ctx).
		Fields("id, name, mimeType, createdTime, modifiedTime, size, owners").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file metadata %s: %w", fileID, err)
	}

	metadata := &DocumentMetadata{
		ID:           file.Id,
		Name:         file.Name,
		MimeType:     file.MimeType,
		CreatedTime:  file.CreatedTime,
		ModifiedTime: file.ModifiedTime,
		Size:         file.Size,
	}
	for _, owner := range file.Owners {
		metadata.Owners = append(metadata.Owners, User{
			DisplayName:  owner.DisplayName,
			EmailAddress: owner.EmailAddress,
		})
	}

	return metadata, nil
}

// ImportContent converts source content (Markdown, HTML, DOCX, ...) into
// a new native Google Doc via Drive's import conversion.
func (c *Client) ImportContent(ctx context.Context, fileName string, content []byte, sourceMimeType, folderID string) (*ImportResult, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("content is empty")
	}
	if sourceMimeType == "" {
		sourceMimeType = DetectSourceFormat(fileName, content)
	}

	file := &drive.File{
		Name:     docNameFromFileName(fileName),
		MimeType: GoogleDocsMimeType,
	}
	if folderID != "" {
		file.Parents = []string{folderID}
	}

	created, err := c.driveService.Files.Create(file).
		Context(ctx).
		Media(bytes.NewReader(content), googleapi.ContentType(sourceMimeType)).
		Fields("id, name, webViewLink").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to import document: %w", err)
	}

	return &ImportResult{
		ID:             created.Id,
		Name:           created.Name,
		WebViewLink:    created.WebViewLink,
		SourceMimeType: sourceMimeType,
		SourceBytes:    int64(len(content)),
	}, nil
}

// ImportFromURL fetches a remote file through the validating fetcher and
// imports it as a Google Doc. The fetch is fully buffered and subject to
// the fetcher's body size cap, since Drive's convert-on-upload needs the
// complete source.
func (c *Client) ImportFromURL(ctx context.Context, fetcher *safefetch.Fetcher, rawURL, fileName, formatHint, folderID string) (*ImportResult, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	var sourceMimeType string
	if formatHint != "" {
		mime, err := ResolveFormatHint(formatHint)
		if err != nil {
			return nil, err
		}
		sourceMimeType = mime
	}

	resp, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s returned status %d", rawURL, resp.StatusCode)
	}

	if sourceMimeType == "" {
		// Prefer the URL's extension over the target file name; the
		// latter often has none.
		sourceMimeType = DetectSourceFormat(rawURL, resp.Body)
	}

	return c.ImportContent(ctx, fileName, resp.Body, sourceMimeType, folderID)
}
