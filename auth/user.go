// Package auth models the per-request user identity and the channel tokens
// binding an MCP session to that identity.
package auth

import (
	"encoding/json"
	"errors"
	"strings"
)

// Organization is an optional membership attribute carried by the identity provider.
type Organization struct {
	ID               string `json:"id" yaml:"id" mapstructure:"id"`
	OrganizationCode string `json:"organization_code" yaml:"organization_code" mapstructure:"organization_code"`
}

// CurrentUser is the identity of the caller, decoded once per HTTP request
// from the trusted upstream user-info header. It is immutable for the life of
// the request and never persisted by the core.
type CurrentUser struct {
	UserID string `json:"user_id" yaml:"user_id" mapstructure:"user_id"`

	// SessionID is the identity provider's sid claim.
	SessionID string `json:"sid" yaml:"sid" mapstructure:"sid"`

	// Scope is the ordered list of granted scopes.
	Scope []string `json:"scope" yaml:"scope" mapstructure:"scope"`

	// Organizations carries optional org membership.
	Organizations []Organization `json:"organizations,omitempty" yaml:"organizations,omitempty" mapstructure:"organizations,omitempty"`
}

// UserFactory builds a CurrentUser from the decoded user-info payload.
// Deployments with richer identity attributes supply their own factory.
type UserFactory func(info map[string]interface{}) (*CurrentUser, error)

// FromInfo is the default UserFactory. The scope claim arrives as a single
// space-separated string and is split here.
func FromInfo(info map[string]interface{}) (*CurrentUser, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	user := &CurrentUser{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, err
	}
	if scope, ok := info["scope"].(string); ok {
		user.Scope = splitScope(scope)
	}
	if user.UserID == "" {
		return nil, errors.New("user info is missing user_id")
	}
	if user.SessionID == "" {
		return nil, errors.New("user info is missing sid")
	}
	return user, nil
}

// UnmarshalJSON tolerates the scope claim arriving either as a list or as a
// space-separated string.
func (u *CurrentUser) UnmarshalJSON(data []byte) error {
	type alias CurrentUser
	shadow := struct {
		*alias
		Scope json.RawMessage `json:"scope"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	if len(shadow.Scope) == 0 {
		return nil
	}
	var asList []string
	if err := json.Unmarshal(shadow.Scope, &asList); err == nil {
		u.Scope = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(shadow.Scope, &asString); err != nil {
		return err
	}
	u.Scope = splitScope(asString)
	return nil
}

func splitScope(scope string) []string {
	parts := strings.Split(scope, " ")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
