package utils

import (
	"context"
	"log"

	"caregate/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMClient is the global Firebase Cloud Messaging client.
var FCMClient *messaging.Client

// FirebaseInit initializes the Firebase app and messaging client.
func FirebaseInit() {
	ctx := context.Background()

	var opts []option.ClientOption
	if config.AppConfig.FCMCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.AppConfig.FCMCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize FCM client: %v", err)
	}
	FCMClient = client
}
