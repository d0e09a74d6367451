package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges the configured credentials for an access token.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("username and password are required")
	}
	var resp loginResponse
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/login",
		body:   loginRequest{Username: c.username, Password: c.password},
	}, "", &resp)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("login failed: empty access token")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()
	c.logger.Debug("logged in", "username", c.username)
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

// AccountID resolves the account the client operates on. Without an account
// name the user's default account is used. The result is cached.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.accountID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	if c.accountName != "" {
		var resp struct {
			AccountID string `json:"account_id"`
		}
		err := c.do(ctx, request{
			method: http.MethodGet,
			path:   "/iam/v2/accounts:getIdByName",
			query:  url.Values{"accountName": {c.accountName}},
		}, &resp)
		if err != nil {
			return "", fmt.Errorf("failed to resolve account %q: %w", c.accountName, err)
		}
		id = resp.AccountID
	} else {
		var resp struct {
			Account struct {
				ID string `json:"id"`
			} `json:"account"`
		}
		if err := c.do(ctx, request{method: http.MethodGet, path: "/iam/v2/account"}, &resp); err != nil {
			return "", fmt.Errorf("failed to resolve default account: %w", err)
		}
		id = resp.Account.ID
	}
	if id == "" {
		return "", fmt.Errorf("account id could not be resolved")
	}

	c.mu.Lock()
	c.accountID = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) accountPath(ctx context.Context, suffix string) (string, error) {
	id, err := c.AccountID(ctx)
	if err != nil {
		return "", err
	}
	return "/core/v1/accounts/" + url.PathEscape(id) + suffix, nil
}
