package docs

// DocumentMetadata represents metadata about a Google Drive file
type DocumentMetadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	Size         int64  `json:"size,omitempty"`
	Owners       []User `json:"owners,omitempty"`
}

// User represents a Google Drive user
type User struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// ImportResult describes the Google Doc created by an import.
type ImportResult struct {
	// ID of the created Google Doc
	ID string `json:"id"`

	// Name of the created Google Doc
	Name string `json:"name"`

	// WebViewLink opens the document in the Docs editor
	WebViewLink string `json:"webViewLink,omitempty"`

	// SourceMimeType is the detected format the content was converted from
	SourceMimeType string `json:"sourceMimeType"`

	// SourceBytes is the size of the imported source content
	SourceBytes int64 `json:"sourceBytes"`
}
