// Package gmail provides a thin client for the Gmail API: listing and
// reading messages, sending mail, and label modification.
package gmail
