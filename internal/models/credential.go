package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access/refresh token pair and profile claims returned by the auth endpoints.
//
// It is persisted as JSON under the "token" storage key and read before every outbound request.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    Timestamp `json:"expiresAt"`
	UserID       ID        `json:"userId"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Email        string    `json:"email,omitempty"`
}

// DecodeCredential reads a credential from an auth response body.
//
// Login and register wrap it as {"token": {...}} while refresh returns it bare.
func DecodeCredential(data []byte) (*Credential, error) {
	var envelope struct {
		Token json.RawMessage `json:"token"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}

	raw := data
	if len(envelope.Token) > 0 && envelope.Token[0] == '{' {
		raw = envelope.Token
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("credential has no access token")
	}

	cred.fillFromClaims()
	return &cred, nil
}

// Expiry returns when the access token stops being valid.
//
// The zero time means the expiry is unknown and the token is treated as non-expiring.
func (c *Credential) Expiry() time.Time {
	if !c.ExpiresAt.IsZero() {
		return c.ExpiresAt.Time
	}
	if claims := c.claims(); claims != nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Time{}
}

// Expired reports whether now is at or past the expiry.
func (c *Credential) Expired(now time.Time) bool {
	exp := c.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Before(exp)
}

// DisplayName joins the first and last name, falling back to the email.
func (c *Credential) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.Email
	}
}

// Merge copies profile fields from prev that a refresh response omits.
func (c *Credential) Merge(prev *Credential) {
	if prev == nil {
		return
	}
	if c.UserID == "" {
		c.UserID = prev.UserID
	}
	if c.FirstName == "" {
		c.FirstName = prev.FirstName
	}
	if c.LastName == "" {
		c.LastName = prev.LastName
	}
	if c.Email == "" {
		c.Email = prev.Email
	}
	if c.RefreshToken == "" {
		c.RefreshToken = prev.RefreshToken
	}
}

// claims parses the access token without verifying its signature; only the backend can verify it.
func (c *Credential) claims() jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return nil
	}
	return claims
}

// fillFromClaims sets userId and email from token claims when the response omitted them.
func (c *Credential) fillFromClaims() {
	if c.UserID != "" && c.Email != "" {
		return
	}
	claims := c.claims()
	if claims == nil {
		return
	}

	if c.UserID == "" {
		for _, key := range []string{"userId", "nameid", "sub"} {
			switch v := claims[key].(type) {
			case string:
				c.UserID = ID(v)
			case float64:
				c.UserID = ID(strconv.FormatFloat(v, 'f', -1, 64))
			}
			if c.UserID != "" {
				break
			}
		}
	}
	if c.Email == "" {
		if v, ok := claims["email"].(string); ok {
			c.Email = v
		}
	}
}
