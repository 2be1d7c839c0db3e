package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"moviebook-cli/model"
)

// SignIn posts credentials and returns the raw response; where the token sits
// in it varies between backend versions.
func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.baseURL+"/auth/signin", "", "Login failed", creds)
}

// SignUp registers a user and returns the raw response.
func (c *Client) SignUp(ctx context.Context, creds model.Credentials) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.baseURL+"/auth/signup", "", "Signup failed", creds)
}

// VerifyUser checks token against the backend and returns the current user.
func (c *Client) VerifyUser(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, errors.New("token is required")
	}
	var user model.User
	if err := c.getJSON(ctx, c.baseURL+"/user/verify", token, "User verification failed", &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
