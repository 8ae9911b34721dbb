package google

import "testing"

func TestHasRequiredScopes(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		required  []string
		want      bool
	}{
		{
			name:      "empty required is always satisfied",
			available: nil,
			required:  nil,
			want:      true,
		},
		{
			name:      "empty available fails any requirement",
			available: nil,
			required:  []string{ScopeGmailReadonly},
			want:      false,
		},
		{
			name:      "exact match",
			available: []string{ScopeGmailReadonly},
			required:  []string{ScopeGmailReadonly},
			want:      true,
		},
		{
			name:      "gmail.modify covers readonly, send and labels",
			available: []string{ScopeGmailModify},
			required:  []string{ScopeGmailReadonly, ScopeGmailSend, ScopeGmailLabels},
			want:      true,
		},
		{
			name:      "gmail.modify does not cover settings.basic",
			available: []string{ScopeGmailModify},
			required:  []string{ScopeGmailSettingsBasic},
			want:      false,
		},
		{
			name:      "narrow scope never implies broad",
			available: []string{ScopeDriveReadonly},
			required:  []string{ScopeDrive},
			want:      false,
		},
		{
			name:      "drive covers readonly and file",
			available: []string{ScopeDrive},
			required:  []string{ScopeDriveReadonly, ScopeDriveFile},
			want:      true,
		},
		{
			name:      "mixed direct and implied",
			available: []string{ScopeGmailModify, ScopeDocsReadonly},
			required:  []string{ScopeGmailReadonly, ScopeDocsReadonly},
			want:      true,
		},
		{
			name:      "one of several required missing",
			available: []string{ScopeGmailModify},
			required:  []string{ScopeGmailReadonly, ScopeDriveReadonly},
			want:      false,
		},
		{
			name:      "chat spaces covers spaces readonly",
			available: []string{ScopeChatSpaces},
			required:  []string{ScopeChatSpacesReadonly},
			want:      true,
		},
		{
			name:      "duplicate available scopes are harmless",
			available: []string{ScopeGmailModify, ScopeGmailModify},
			required:  []string{ScopeGmailReadonly},
			want:      true,
		},
		{
			name:      "unknown scope strings pass through unexpanded",
			available: []string{"https://www.googleapis.com/auth/unknown"},
			required:  []string{"https://www.googleapis.com/auth/unknown"},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRequiredScopes(tt.available, tt.required); got != tt.want {
				t.Errorf("HasRequiredScopes(%v, %v) = %v, want %v",
					tt.available, tt.required, got, tt.want)
			}
		})
	}
}

func TestScopeHierarchyIsBroadToNarrowOnly(t *testing.T) {
	// Every value in the table must be strictly narrower than its key:
	// no narrow scope may appear as a key implying a broad one back.
	for broad, narrows := range ScopeHierarchy {
		for _, narrow := range narrows {
			if narrow == broad {
				t.Errorf("scope %q implies itself", broad)
			}
			for _, implied := range ScopeHierarchy[narrow] {
				if implied == broad {
					t.Errorf("cycle: %q implies %q implies %q", broad, narrow, broad)
				}
			}
		}
	}
}

func TestServiceScopes(t *testing.T) {
	for _, svc := range []string{"gmail", "drive", "docs", "chat"} {
		if len(ServiceScopes(svc)) == 0 {
			t.Errorf("ServiceScopes(%q) is empty", svc)
		}
	}
	if ServiceScopes("nonexistent") != nil {
		t.Error("ServiceScopes for unknown service should be nil")
	}
}

func TestDefaultOAuthScopesContainBaseScopes(t *testing.T) {
	for _, base := range BaseScopes {
		if !containsScope(DefaultOAuthScopes, base) {
			t.Errorf("DefaultOAuthScopes missing base scope %q", base)
		}
	}
	seen := make(map[string]struct{}, len(DefaultOAuthScopes))
	for _, s := range DefaultOAuthScopes {
		if _, dup := seen[s]; dup {
			t.Errorf("DefaultOAuthScopes contains duplicate %q", s)
		}
		seen[s] = struct{}{}
	}
}
