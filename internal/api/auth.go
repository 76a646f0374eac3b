package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshSkew renews tokens slightly before their exp claim so a request does
// not race the expiry on the server side.
const refreshSkew = 30 * time.Second

// freshAccessToken returns a usable access token, silently refreshing it via
// POST token/refresh/ when the stored one has expired. The refresh call goes
// out without the Authorization header to avoid recursing into this path.
func (c *Client) freshAccessToken(ctx context.Context) (string, error) {
	if !tokenExpired(c.tokens.Access, time.Now()) {
		return c.tokens.Access, nil
	}
	if c.tokens.Refresh == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	body, err := json.Marshal(map[string]string{"refresh": c.tokens.Refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/token/refresh/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	c.tokens.Access = out.Access
	if c.OnTokens != nil {
		c.OnTokens(c.tokens)
	}
	return c.tokens.Access, nil
}

// tokenExpired inspects the exp claim without verifying the signature; the
// client only needs the timestamp, the server still validates the token.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens carry no readable expiry; let the server decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(refreshSkew).After(exp.Time)
}
