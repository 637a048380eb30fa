package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// appJWTSkew backdates iat to absorb clock drift.
	appJWTSkew = 60 * time.Second
	// appJWTTTL is the lifetime GitHub allows for App JWTs.
	appJWTTTL = 10 * time.Minute
)

// TokenSource says where a resolved token came from.
type TokenSource string

const (
	SourceNone TokenSource = ""
	SourcePAT  TokenSource = "pat"
	SourceApp  TokenSource = "app"
)

// Credentials are the inputs ResolveToken chooses from.
type Credentials struct {
	Token          string
	AppID          string
	PrivateKey     string
	InstallationID string
}

// Token is a bearer token ready for API calls and HTTPS pushes.
type Token struct {
	Value     string
	Source    TokenSource
	ExpiresAt string
}

// ResolveToken prefers a personal access token. Without one it mints a GitHub
// App installation token when an App ID and private key are present. With
// neither it returns an empty Token and no error.
func (c *Client) ResolveToken(ctx context.Context, creds Credentials) (Token, error) {
	if creds.Token != "" {
		return Token{Value: creds.Token, Source: SourcePAT}, nil
	}
	if creds.AppID == "" || creds.PrivateKey == "" {
		return Token{}, nil
	}

	signed, err := appJWT(creds.AppID, creds.PrivateKey)
	if err != nil {
		return Token{}, err
	}

	installation := creds.InstallationID
	if installation == "" {
		var inst struct {
			ID int64 `json:"id"`
		}
		if err := c.do(ctx, "GET", c.repoPath("/installation"), signed, nil, &inst); err != nil {
			return Token{}, fmt.Errorf("detecting GitHub App installation for %s: %w", c.Repo.FullName(), err)
		}
		if inst.ID == 0 {
			return Token{}, errors.New("detecting GitHub App installation: response has no id")
		}
		installation = fmt.Sprint(inst.ID)
	}

	var tok struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	path := fmt.Sprintf("/app/installations/%s/access_tokens", installation)
	if err := c.do(ctx, "POST", path, signed, struct{}{}, &tok); err != nil {
		return Token{}, fmt.Errorf("creating installation access token: %w", err)
	}
	if tok.Token == "" {
		return Token{}, errors.New("creating installation access token: response has no token")
	}
	logDebug("[github] minted installation token for installation %s", installation)
	return Token{Value: tok.Token, Source: SourceApp, ExpiresAt: tok.ExpiresAt}, nil
}

// appJWT signs the short-lived RS256 JWT that authenticates as the App.
func appJWT(appID, privateKey string) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePrivateKey(privateKey)))
	if err != nil {
		return "", fmt.Errorf("parsing GitHub App private key (expected an unencrypted PEM; keep newlines or use \\n escapes): %w", err)
	}
	issued := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    appID,
		IssuedAt:  jwt.NewNumericDate(issued.Add(-appJWTSkew)),
		ExpiresAt: jwt.NewNumericDate(issued.Add(appJWTTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing GitHub App JWT: %w", err)
	}
	return signed, nil
}

// normalizePrivateKey accepts a literal PEM or a single line with \n escapes.
func normalizePrivateKey(raw string) string {
	if strings.Contains(raw, `\n`) {
		raw = strings.ReplaceAll(raw, `\n`, "\n")
	}
	return strings.ReplaceAll(raw, "\r", "")
}
