package gmail

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"workspacemcp/internal/google"
)

// Client wraps the Gmail API service
type Client struct {
	service *gmail.Service
	account string
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccount creates a Gmail client authenticated for the
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

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		service: service,
		account: account,
	}, nil
}

// NewClient creates a Gmail client for the default account.
func NewClient(ctx context.Context, tokenProvider google.TokenProvider) (*Client, error) {
	return NewClientForAccount(ctx, google.DefaultAccount, tokenProvider)
}

// ListMessages lists messages matching a Gmail search query (the same
// syntax as the Gmail search box, e.g. "from:jane is:unread").
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int64, pageToken string) ([]*MessageSummary, string, error) {
	call := c.service.Users.Messages.List("me").Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	list, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make([]*MessageSummary, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.service.Users.Messages.Get("me", ref.Id).
			Context(ctx).
			Format("metadata").
			MetadataHeaders("Subject", "From", "To", "Date").
			Do()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		summaries = append(summaries, summarize(msg))
	}

	return summaries, list.NextPageToken, nil
}

// GetMessage retrieves a single message with its body decoded.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	msg, err := c.service.Users.Messages.Get("me", messageID).
		Context(ctx).
		Format("full").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	body, isHTML := decodeBody(msg.Payload)
	return &Message{
		MessageSummary: *summarize(msg),
		Body:           body,
		BodyIsHTML:     isHTML,
	}, nil
}

// SendMessage sends an email and returns the new message ID.
func (c *Client) SendMessage(ctx context.Context, req *SendRequest) (string, error) {
	raw, err := buildRawMessage(req)
	if err != nil {
		return "", err
	}

	sent, err := c.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}

// ModifyLabels adds and removes label IDs on a message.
func (c *Client) ModifyLabels(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) (*MessageSummary, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return nil, fmt.Errorf("at least one label to add or remove is required")
	}

	msg, err := c.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to modify labels on message %s: %w", messageID, err)
	}

	return summarize(msg), nil
}

// ListLabels lists the labels in the user's mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]*Label, error) {
	list, err := c.service.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]*Label, len(list.Labels))
	for i, l := range list.Labels {
		labels[i] = &Label{ID: l.Id, Name: l.Name, Type: l.Type}
	}
	return labels, nil
}

func summarize(msg *gmail.Message) *MessageSummary {
	s := &MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}
	if msg.Payload != nil {
		s.Subject = headerValue(msg.Payload, "Subject")
		s.From = headerValue(msg.Payload, "From")
		s.To = headerValue(msg.Payload, "To")
		s.Date = headerValue(msg.Payload, "Date")
	}
	return s
}
