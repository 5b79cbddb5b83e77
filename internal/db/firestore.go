package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"tradebridge-backend/internal/config"
)

var (
	fsClient     *firestore.Client
	fbAuthClient *auth.Client
)

// InitFirebase initializes the Firebase Admin SDK and the global Firestore
// and Auth clients. Credentials come from a service-account file path, a
// base64-encoded service-account JSON, or Application Default Credentials,
// in that order of preference.
func InitFirebase(ctx context.Context, appConfig *config.Config) error {
	if appConfig == nil {
		return fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	if appConfig.GoogleApplicationCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	} else if appConfig.FirebaseServiceAccountJSONBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: appConfig.FirebaseProjectID}, opts...)
	if err != nil {
		return fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("app.Firestore: %w", err)
	}
	fsClient = client

	authCl, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return fmt.Errorf("app.Auth: %w", err)
	}
	fbAuthClient = authCl

	return nil
}

// GetFirestoreClient returns the global Firestore client. Nil before a
// successful InitFirebase.
func GetFirestoreClient() *firestore.Client {
	return fsClient
}

// GetFirebaseAuthClient returns the global Firebase Auth client. Nil before
// a successful InitFirebase.
func GetFirebaseAuthClient() *auth.Client {
	return fbAuthClient
}
