package internal

import "strings"

// roleSynonyms maps lowercased vendor role tokens to canonical roles
var roleSynonyms = map[string]Role{
	"user":   RoleUser,
	"human":  RoleUser,
	"you":    RoleUser,
	"prompt": RoleUser,
	"me":     RoleUser,

	"assistant": RoleAssistant,
	"ai":        RoleAssistant,
	"bot":       RoleAssistant,
	"claude":    RoleAssistant,
	"chatgpt":   RoleAssistant,
	"gpt":       RoleAssistant,
	"response":  RoleAssistant,
	"model":     RoleAssistant,
	"gemini":    RoleAssistant,
	"copilot":   RoleAssistant,

	"system": RoleSystem,

	"tool":        RoleTool,
	"function":    RoleTool,
	"tool_result": RoleTool,
}

// NormalizeRole maps a vendor role token to a canonical role.
// Unrecognized tokens default to user.
func NormalizeRole(token string) Role {
	key := strings.ToLower(strings.TrimSpace(token))
	if role, ok := roleSynonyms[key]; ok {
		return role
	}
	return RoleUser
}

// IsRoleToken reports whether token is a known role synonym
func IsRoleToken(token string) bool {
	_, ok := roleSynonyms[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// RoleLabel is the display label renderers use for a role
func RoleLabel(r Role) string {
	switch r {
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return "User"
	}
}
