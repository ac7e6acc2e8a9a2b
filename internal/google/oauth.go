package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"schoolcal/internal/models"
)

// IDTokenVerifier checks an ID token's signature and audience and returns its claims.
type IDTokenVerifier func(idToken, clientID string) (*googleAuthIDTokenVerifier.ClaimSet, error)

// LoginClient drives the Google sign-in web flow.
type LoginClient struct {
	config *oauth2.Config
	logger *slog.Logger
	verify IDTokenVerifier
}

// NewLoginClient creates a sign-in client that redirects back to callbackURL.
func NewLoginClient(logger *slog.Logger, clientID, clientSecret, callbackURL string) (*LoginClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}
	return &LoginClient{config: config, logger: logger, verify: verifyWithGoogle}, nil
}

// getOAuthConfig returns the OAuth2 config used for the login flow.
func getOAuthConfig(clientID, clientSecret, callbackURL string) (*oauth2.Config, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for login")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}

// AuthCodeURL returns the consent page URL carrying state.
func (c *LoginClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Identify exchanges the authorization code and returns the verified user.
func (c *LoginClient) Identify(ctx context.Context, code string) (models.Identity, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return models.Identity{}, fmt.Errorf("unable to exchange authorization code: %w", err)
	}

	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return models.Identity{}, errors.New("token response carried no id_token")
	}

	claims, err := c.verify(raw, c.config.ClientID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid Google ID token: %w", err)
	}
	if claims.Email == "" {
		return models.Identity{}, errors.New("google account has no email")
	}

	c.logger.Debug("Verified Google sign-in", "email", claims.Email)
	return models.Identity{
		ID:          claims.Sub,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Photo:       claims.Picture,
	}, nil
}

func verifyWithGoogle(idToken, clientID string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{clientID}); err != nil {
		return nil, err
	}
	return googleAuthIDTokenVerifier.Decode(idToken)
}
