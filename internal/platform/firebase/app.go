package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

type Credentials struct {
	ProjectID string
	JSON      string
	Path      string
}

// NewFirestoreClient initializes a Firebase app from inline JSON credentials,
// falling back to a credentials file, and returns its Firestore client.
func NewFirestoreClient(ctx context.Context, creds Credentials) (*firestore.Client, error) {
	var opt option.ClientOption

	switch {
	case creds.JSON != "":
		var probe map[string]any
		if err := json.Unmarshal([]byte(creds.JSON), &probe); err != nil {
			return nil, fmt.Errorf("firebase: invalid credentials json: %w", err)
		}
		opt = option.WithCredentialsJSON([]byte(creds.JSON))
	case creds.Path != "":
		if _, err := os.Stat(creds.Path); err != nil {
			return nil, fmt.Errorf("firebase: credentials file %q: %w", creds.Path, err)
		}
		opt = option.WithCredentialsFile(creds.Path)
	default:
		return nil, errors.New("firebase: no credentials configured")
	}

	var cfg *firebase.Config
	if creds.ProjectID != "" {
		cfg = &firebase.Config{ProjectID: creds.ProjectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: firestore client: %w", err)
	}
	return client, nil
}
