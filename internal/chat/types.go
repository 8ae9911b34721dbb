package chat

// Space represents a Google Chat space.
type Space struct {
	// Name is the resource name, e.g. "spaces/AAAA1234".
	Name string `json:"name"`

	// DisplayName is the human-readable space name.
	DisplayName string `json:"displayName,omitempty"`

	// Type is the space type (SPACE, GROUP_CHAT, DIRECT_MESSAGE).
	Type string `json:"type,omitempty"`
}

// Message represents a message in a Chat space.
type Message struct {
	// Name is the resource name, e.g. "spaces/AAAA/messages/BBBB.CCCC".
	Name string `json:"name"`

	// Sender is the display name of the sending user, or their resource
	// name when no display name is available.
	Sender string `json:"sender,omitempty"`

	// Text is the plain-text message body.
	Text string `json:"text"`

	// CreateTime is the RFC 3339 creation timestamp.
	CreateTime string `json:"createTime,omitempty"`

	// Thread is the resource name of the containing thread.
	Thread string `json:"thread,omitempty"`
}
