package jwt

import (
	"encoding/json"
	"errors"
	"strings"

	"unipool/internal/domain/user"
)

var (
	ErrBadAuthMsg   = errors.New("invalid auth message")
	ErrBadTokenWrap = errors.New("token must be 'Bearer <token>'")
)

// ClientAuthMessage is what clients send first over WS:
// { "type":"auth", "token":"Bearer <jwt>" }
type ClientAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type Result struct {
	Claims *Claims
	Raw    string
}

// ValidateWSAuth parses the first auth frame, validates the JWT, and
// enforces RBAC. Mobile clients sometimes send the bare token, so the
// Bearer wrapping is optional here, unlike the HTTP header path.
func ValidateWSAuth(frame []byte, mgr *Manager, allowedRoles ...user.Role) (*Result, error) {
	var msg ClientAuthMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, ErrBadAuthMsg
	}

	if strings.ToLower(strings.TrimSpace(msg.Type)) != "auth" {
		return nil, ErrBadAuthMsg
	}

	raw := strings.TrimSpace(msg.Token)
	if parts := strings.SplitN(raw, " ", 2); len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return nil, ErrBadTokenWrap
		}
		raw = strings.TrimSpace(parts[1])
	}
	if raw == "" {
		return nil, ErrBadTokenWrap
	}

	_, claims, err := mgr.ParseAndValidate(raw)
	if err != nil {
		return nil, err
	}

	if err := RoleAllowed(claims, allowedRoles...); err != nil {
		return nil, err
	}

	return &Result{Claims: claims, Raw: raw}, nil
}
