package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	chat "google.golang.org/api/chat/v1"
	"google.golang.org/api/option"

	"workspacemcp/internal/google"
)

// Client wraps the Google Chat API service
type Client struct {
	service *chat.Service
	account string
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccount creates a Google Chat client authenticated for the
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

	service, err := chat.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Chat service: %w", err)
	}

	return &Client{
		service: service,
		account: account,
	}, nil
}

// NewClient creates a Chat client for the default account.
func NewClient(ctx context.Context, tokenProvider google.TokenProvider) (*Client, error) {
	return NewClientForAccount(ctx, google.DefaultAccount, tokenProvider)
}

// ListSpaces lists the spaces the user is a member of.
func (c *Client) ListSpaces(ctx context.Context, pageSize int64, pageToken string) ([]*Space, string, error) {
	call := c.service.Spaces.List().Context(ctx)
	if pageSize > 0 {
		call = call.PageSize(pageSize)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	list, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list spaces: %w", err)
	}

	spaces := make([]*Space, len(list.Spaces))
	for i, s := range list.Spaces {
		spaces[i] = convertSpace(s)
	}

	return spaces, list.NextPageToken, nil
}

// ListMessages lists messages in a space, newest first.
func (c *Client) ListMessages(ctx context.Context, spaceName string, pageSize int64, pageToken string) ([]*Message, string, error) {
	spaceName, err := normalizeSpaceName(spaceName)
	if err != nil {
		return nil, "", err
	}

	call := c.service.Spaces.Messages.List(spaceName).
		Context(ctx).
		OrderBy("createTime desc")
	if pageSize > 0 {
		call = call.PageSize(pageSize)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	list, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages in %s: %w", spaceName, err)
	}

	messages := make([]*Message, len(list.Messages))
	for i, m := range list.Messages {
		messages[i] = convertMessage(m)
	}

	return messages, list.NextPageToken, nil
}

// SendMessage sends a plain-text message to a space.
func (c *Client) SendMessage(ctx context.Context, spaceName, text string) (*Message, error) {
	spaceName, err := normalizeSpaceName(spaceName)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}

	sent, err := c.service.Spaces.Messages.Create(spaceName, &chat.Message{Text: text}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message to %s: %w", spaceName, err)
	}

	return convertMessage(sent), nil
}

// normalizeSpaceName accepts either a bare space ID or a full resource
// name and returns the "spaces/<id>" form the API requires.
func normalizeSpaceName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("space name is required")
	}
	if strings.HasPrefix(name, "spaces/") {
		return name, nil
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid space name %q", name)
	}
	return "spaces/" + name, nil
}

func convertSpace(s *chat.Space) *Space {
	return &Space{
		Name:        s.Name,
		DisplayName: s.DisplayName,
		Type:        s.SpaceType,
	}
}

func convertMessage(m *chat.Message) *Message {
	msg := &Message{
		Name:       m.Name,
		Text:       m.Text,
		CreateTime: m.CreateTime,
	}
	if m.Sender != nil {
		if m.Sender.DisplayName != "" {
			msg.Sender = m.Sender.DisplayName
		} else {
			msg.Sender = m.Sender.Name
		}
	}
	if m.Thread != nil {
		msg.Thread = m.Thread.Name
	}
	return msg
}
