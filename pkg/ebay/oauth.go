package ebay

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Token is the result of an OAuth grant, including the refresh-token expiry
// the marketplace reports alongside the standard fields.
type Token struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthCodeURL returns the consent URL the seller must visit to connect their
// marketplace account. state is round-tripped through the redirect.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "login"))
}

// ExchangeCode exchanges an authorization code for tokens
// (authorization-code grant).
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	tok, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return fromOAuth2Token(tok), nil
}

// RefreshAccessToken performs a refresh-token grant. The marketplace rotates
// access tokens only; the refresh token and its expiry survive unchanged
// unless the response says otherwise.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	src := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	out := fromOAuth2Token(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// fromOAuth2Token maps the oauth2 token, pulling the marketplace's extra
// refresh_token_expires_in field when present.
func fromOAuth2Token(tok *oauth2.Token) *Token {
	out := &Token{
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
		AccessExpiresAt: tok.Expiry,
	}
	if v, ok := tok.Extra("refresh_token_expires_in").(float64); ok && v > 0 {
		out.RefreshExpiresAt = time.Now().Add(time.Duration(v) * time.Second)
	}
	return out
}
