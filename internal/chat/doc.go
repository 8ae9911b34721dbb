// Package chat provides a thin client for the Google Chat API: listing
// spaces, reading space messages and sending messages.
package chat
