package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
)

// GetAccessToken runs the OAuth password grant. The security token, when
// configured, is appended to the password. Credentials travel as query
// parameters with a form content type, which is what the provider accepts.
func (c *Client) GetAccessToken(ctx context.Context) (*application.TokenResponse, error) {
	password := c.cfg.Password + c.cfg.SecretToken

	params := url.Values{}
	params.Set("grant_type", "password")
	params.Set("client_id", c.cfg.ClientID)
	params.Set("client_secret", c.cfg.ClientSecret)
	params.Set("username", c.cfg.Username)
	params.Set("password", password)

	endpoint := withQuery(c.baseURL()+"/"+serviceRegistry[ServiceGetToken], params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newGatewayError(ServiceGetToken, resp.StatusCode, body)
	}

	var token application.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("error decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &GatewayError{
			Service:    ServiceGetToken,
			StatusCode: resp.StatusCode,
			Code:       token.Error,
			Message:    "response did not contain an access token",
		}
	}

	return &token, nil
}
