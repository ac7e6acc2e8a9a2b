package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/sheets/v4"
)

// ServiceAccount identifies the robot account used for Sheets and Calendar access.
// Either Email+PrivateKey or CredentialsFile must be set.
type ServiceAccount struct {
	Email           string
	PrivateKey      string
	CredentialsFile string
}

var serviceScopes = []string{sheets.SpreadsheetsScope, calendar.CalendarReadonlyScope}

// ServiceHTTPClient returns an HTTP client authorised as the service account.
// It prioritizes the email/key pair over a credentials JSON file.
func ServiceHTTPClient(ctx context.Context, sa ServiceAccount) (*http.Client, error) {
	if sa.Email != "" && sa.PrivateKey != "" {
		conf := &jwt.Config{
			Email:      sa.Email,
			PrivateKey: []byte(sa.PrivateKey),
			Scopes:     serviceScopes,
			TokenURL:   google.JWTTokenURL,
		}
		return conf.Client(ctx), nil
	}

	if sa.CredentialsFile == "" {
		return nil, errors.New("no service account configured: set GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY or GOOGLE_CREDENTIALS_FILE")
	}
	b, err := os.ReadFile(sa.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(b, serviceScopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account file: %w", err)
	}
	return conf.Client(ctx), nil
}
