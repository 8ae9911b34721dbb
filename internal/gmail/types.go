package gmail

// MessageSummary holds the header-level view of a message, as returned
// by listing.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet,omitempty"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// Message is a full message including its decoded body.
type Message struct {
	MessageSummary

	// Body is the decoded message text. Plain text is preferred; HTML
	// is returned as-is when no plain part exists.
	Body string `json:"body"`

	// BodyIsHTML reports whether Body came from a text/html part.
	BodyIsHTML bool `json:"bodyIsHtml,omitempty"`
}

// SendRequest describes an outgoing email.
type SendRequest struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	IsHTML  bool     `json:"isHtml,omitempty"`
}

// Label represents a Gmail label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
