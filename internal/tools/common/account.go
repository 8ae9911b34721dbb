package common

import (
	"context"

	"workspacemcp/internal/google"
	"workspacemcp/internal/server"
)

// GetAccountFromArgs resolves the account a tool call acts on.
//
// Priority order:
//  1. OAuth user email from the request context (HTTP transport)
//  2. Explicit "account" argument
//  3. "default" (STDIO transport single-account mode)
func GetAccountFromArgs(ctx context.Context, args map[string]interface{}) string {
	if account, ok := server.AccountFromContext(ctx); ok {
		return account
	}

	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return google.DefaultAccount
}
