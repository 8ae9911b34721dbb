package google

// Individual OAuth scope URIs for the Google Workspace APIs this server
// talks to. Kept as constants so the hierarchy table, the per-service
// groups and the tool registrations all agree on the exact strings.
const (
	ScopeOpenID          = "openid"
	ScopeUserinfoEmail   = "https://www.googleapis.com/auth/userinfo.email"
	ScopeUserinfoProfile = "https://www.googleapis.com/auth/userinfo.profile"

	// Gmail
	ScopeGmailReadonly      = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailSend          = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailCompose       = "https://www.googleapis.com/auth/gmail.compose"
	ScopeGmailModify        = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailLabels        = "https://www.googleapis.com/auth/gmail.labels"
	ScopeGmailSettingsBasic = "https://www.googleapis.com/auth/gmail.settings.basic"

	// Drive
	ScopeDrive         = "https://www.googleapis.com/auth/drive"
	ScopeDriveReadonly = "https://www.googleapis.com/auth/drive.readonly"
	ScopeDriveFile     = "https://www.googleapis.com/auth/drive.file"

	// Docs
	ScopeDocs         = "https://www.googleapis.com/auth/documents"
	ScopeDocsReadonly = "https://www.googleapis.com/auth/documents.readonly"

	// Chat
	ScopeChatMessages         = "https://www.googleapis.com/auth/chat.messages"
	ScopeChatMessagesReadonly = "https://www.googleapis.com/auth/chat.messages.readonly"
	ScopeChatSpaces           = "https://www.googleapis.com/auth/chat.spaces"
	ScopeChatSpacesReadonly   = "https://www.googleapis.com/auth/chat.spaces.readonly"

	// Calendar
	ScopeCalendar         = "https://www.googleapis.com/auth/calendar"
	ScopeCalendarReadonly = "https://www.googleapis.com/auth/calendar.readonly"
	ScopeCalendarEvents   = "https://www.googleapis.com/auth/calendar.events"

	// Sheets
	ScopeSheets         = "https://www.googleapis.com/auth/spreadsheets"
	ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"

	// Slides
	ScopeSlides         = "https://www.googleapis.com/auth/presentations"
	ScopeSlidesReadonly = "https://www.googleapis.com/auth/presentations.readonly"

	// Forms
	ScopeFormsBody              = "https://www.googleapis.com/auth/forms.body"
	ScopeFormsBodyReadonly      = "https://www.googleapis.com/auth/forms.body.readonly"
	ScopeFormsResponsesReadonly = "https://www.googleapis.com/auth/forms.responses.readonly"

	// Tasks
	ScopeTasks         = "https://www.googleapis.com/auth/tasks"
	ScopeTasksReadonly = "https://www.googleapis.com/auth/tasks.readonly"

	// Contacts (People API)
	ScopeContacts         = "https://www.googleapis.com/auth/contacts"
	ScopeContactsReadonly = "https://www.googleapis.com/auth/contacts.readonly"

	// Apps Script
	ScopeScriptProjects            = "https://www.googleapis.com/auth/script.projects"
	ScopeScriptProjectsReadonly    = "https://www.googleapis.com/auth/script.projects.readonly"
	ScopeScriptDeployments         = "https://www.googleapis.com/auth/script.deployments"
	ScopeScriptDeploymentsReadonly = "https://www.googleapis.com/auth/script.deployments.readonly"
)

// ScopeHierarchy maps a broad scope to the narrower scopes it implicitly
// covers, per Google's API-specific authorization documentation
// (e.g. gmail.modify covers gmail.readonly).
//
// The table is authoritative and static for the process lifetime, and it
// is expanded in a single pass: a narrow set that itself contains a broad
// scope is NOT followed further unless the implication is listed here
// directly. Broader grants imply narrower ones, never the reverse.
var ScopeHierarchy = map[string][]string{
	ScopeGmailModify: {
		ScopeGmailReadonly,
		ScopeGmailSend,
		ScopeGmailCompose,
		ScopeGmailLabels,
	},
	ScopeDrive:             {ScopeDriveReadonly, ScopeDriveFile},
	ScopeDocs:              {ScopeDocsReadonly},
	ScopeChatMessages:      {ScopeChatMessagesReadonly},
	ScopeChatSpaces:        {ScopeChatSpacesReadonly},
	ScopeCalendar:          {ScopeCalendarReadonly, ScopeCalendarEvents},
	ScopeSheets:            {ScopeSheetsReadonly},
	ScopeSlides:            {ScopeSlidesReadonly},
	ScopeFormsBody:         {ScopeFormsBodyReadonly},
	ScopeTasks:             {ScopeTasksReadonly},
	ScopeContacts:          {ScopeContactsReadonly},
	ScopeScriptProjects:    {ScopeScriptProjectsReadonly},
	ScopeScriptDeployments: {ScopeScriptDeploymentsReadonly},
}

// HasRequiredScopes reports whether the available scopes satisfy every
// required scope, accounting for the scope hierarchy. An empty required
// set is always satisfied; a nil available set is the empty set and fails
// any non-empty requirement.
func HasRequiredScopes(available, required []string) bool {
	if len(required) == 0 {
		return true
	}

	expanded := make(map[string]struct{}, len(available))
	for _, scope := range available {
		expanded[scope] = struct{}{}
	}
	// Single-pass expansion over the literal table.
	for _, scope := range available {
		for _, covered := range ScopeHierarchy[scope] {
			expanded[covered] = struct{}{}
		}
	}

	for _, scope := range required {
		if _, ok := expanded[scope]; !ok {
			return false
		}
	}
	return true
}

// BaseScopes are required for user identification on every credential.
var BaseScopes = []string{ScopeOpenID, ScopeUserinfoEmail, ScopeUserinfoProfile}

// Per-service scope groups, used when requesting authorization and when
// registering tools.
var (
	GmailScopes = []string{
		ScopeGmailReadonly,
		ScopeGmailSend,
		ScopeGmailCompose,
		ScopeGmailModify,
		ScopeGmailLabels,
		ScopeGmailSettingsBasic,
	}

	DriveScopes = []string{ScopeDrive, ScopeDriveReadonly, ScopeDriveFile}

	DocsScopes = []string{
		ScopeDocs,
		ScopeDocsReadonly,
		ScopeDriveReadonly,
		ScopeDriveFile, // Docs creation and import go through the Drive API
	}

	ChatScopes = []string{
		ScopeChatMessages,
		ScopeChatMessagesReadonly,
		ScopeChatSpaces,
		ScopeChatSpacesReadonly,
	}
)

// serviceScopes maps a service name to the scopes its tools need.
var serviceScopes = map[string][]string{
	"gmail": GmailScopes,
	"drive": DriveScopes,
	"docs":  DocsScopes,
	"chat":  ChatScopes,
}

// ServiceScopes returns the scopes required by the named service, or nil
// for an unknown service.
func ServiceScopes(service string) []string {
	return serviceScopes[service]
}

// DefaultOAuthScopes are the scopes requested during authorization for
// full server functionality: identification plus every enabled service.
var DefaultOAuthScopes = func() []string {
	scopes := make([]string, 0, 16)
	scopes = append(scopes, BaseScopes...)
	for _, group := range [][]string{GmailScopes, DriveScopes, DocsScopes, ChatScopes} {
		for _, s := range group {
			if !containsScope(scopes, s) {
				scopes = append(scopes, s)
			}
		}
	}
	return scopes
}()

func containsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
