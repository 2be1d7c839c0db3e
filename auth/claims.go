package auth

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"moviebook-cli/model"
)

// Claims are the parts of the backend's JWT the client cares about. The
// signature is not checked here; the backend verifies every request.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes a JWT payload without verifying it.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var c Claims
	c.Subject = firstString(mc, "sub", "id", "_id")
	c.Role = strings.ToUpper(firstString(mc, "userRole", "role"))
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func firstString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if s, ok := mc[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// ExtractToken finds the access token in a sign-in response. Backends put it
// at accessToken, token, data.accessToken or data.token.
func ExtractToken(raw []byte) string {
	var payload struct {
		AccessToken string `json:"accessToken"`
		Token       string `json:"token"`
		Data        *struct {
			AccessToken string `json:"accessToken"`
			Token       string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	candidates := []string{payload.AccessToken, payload.Token}
	if payload.Data != nil {
		candidates = append(candidates, payload.Data.AccessToken, payload.Data.Token)
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// ExtractUser decodes the user from a sign-in response, unwrapping "data".
func ExtractUser(raw []byte) (model.User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.User{}, errors.New("empty response")
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return model.User{}, fmt.Errorf("decode user: %w", err)
	}
	body := raw
	if d := bytes.TrimSpace(envelope.Data); len(d) > 0 && d[0] == '{' {
		body = d
	}
	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return model.User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

// IsAdmin reports whether user may manage the catalogue.
func IsAdmin(user model.User) bool {
	return user.EffectiveRole() == model.RoleAdmin
}

// IsOwner reports a theatre owner account.
func IsOwner(user model.User) bool {
	switch user.EffectiveRole() {
	case model.RoleClient, "OWNER":
		return true
	default:
		return false
	}
}
