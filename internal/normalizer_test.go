package internal

import (
	"strings"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		token string
		want  Role
	}{
		{"user", RoleUser},
		{"Human", RoleUser},
		{" you ", RoleUser},
		{"Prompt", RoleUser},
		{"assistant", RoleAssistant},
		{"AI", RoleAssistant},
		{"Claude", RoleAssistant},
		{"ChatGPT", RoleAssistant},
		{"Response", RoleAssistant},
		{"model", RoleAssistant},
		{"system", RoleSystem},
		{"tool", RoleTool},
		{"function", RoleTool},
		{"tool_result", RoleTool},
		{"narrator", RoleUser},
		{"", RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := NormalizeRole(tt.token); got != tt.want {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestNormalizeRole_TotalAndIdempotent(t *testing.T) {
	tokens := []string{"", " ", "narrator", "USER ", "Tool_Result", "42", "système"}
	for token := range roleSynonyms {
		tokens = append(tokens, token, strings.ToUpper(token))
	}

	for _, token := range tokens {
		once := NormalizeRole(token)
		if !once.Valid() {
			t.Errorf("NormalizeRole(%q) = %q, not a canonical role", token, once)
		}
		if twice := NormalizeRole(string(once)); twice != once {
			t.Errorf("NormalizeRole(NormalizeRole(%q)) = %q, want %q", token, twice, once)
		}
	}
}

func TestIsRoleToken(t *testing.T) {
	if !IsRoleToken("Assistant") || !IsRoleToken(" human ") {
		t.Error("known synonyms should be role tokens")
	}
	if IsRoleToken("narrator") || IsRoleToken("") {
		t.Error("unknown tokens should not be role tokens")
	}
}

func TestRoleLabel(t *testing.T) {
	tests := map[Role]string{
		RoleUser:      "User",
		RoleAssistant: "Assistant",
		RoleSystem:    "System",
		RoleTool:      "Tool",
		"":            "User",
	}
	for role, want := range tests {
		if got := RoleLabel(role); got != want {
			t.Errorf("RoleLabel(%q) = %q, want %q", role, got, want)
		}
	}
}
