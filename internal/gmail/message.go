package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// buildRawMessage assembles an RFC 2822 message and encodes it in the
// base64url form the Gmail API expects.
func buildRawMessage(req *SendRequest) (string, error) {
	if req == nil || len(req.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if req.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if req.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(req.To, ", "))
	b.WriteString("\r\n")

	if len(req.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(req.Cc, ", "))
		b.WriteString("\r\n")
	}
	if len(req.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(req.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(req.Subject))
	b.WriteString("\r\n")

	if req.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(req.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// encodeRFC2047 encodes a header value per RFC 2047 when it contains
// non-ASCII characters (umlauts and the like); pure ASCII passes through.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// headerValue returns the named header from a message part, or "".
func headerValue(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBody extracts the message body from a payload tree. text/plain
// is preferred; text/html is the fallback, reported via the second
// return value.
func decodeBody(payload *gmail.MessagePart) (body string, isHTML bool) {
	if payload == nil {
		return "", false
	}

	if plain := findPart(payload, "text/plain"); plain != "" {
		return plain, false
	}
	if html := findPart(payload, "text/html"); html != "" {
		return html, true
	}
	return "", false
}

// findPart walks the part tree depth-first and returns the decoded data
// of the first part with the given MIME type.
func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBase64URL(part.Body.Data); err == nil {
			return string(data)
		}
	}

	for _, child := range part.Parts {
		if found := findPart(child, mimeType); found != "" {
			return found
		}
	}
	return ""
}

// decodeBase64URL handles both padded and unpadded base64url; the Gmail
// API omits padding.
func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
