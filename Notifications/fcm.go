package Notifications

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Global Firebase client
var firebaseClient *messaging.Client
var ctx = context.Background()

// InitFirebase wires the FCM client from the service account file named by
// FIREBASE_CREDENTIALS_FILE. Call once at startup; push stays disabled when
// the variable is unset.
func InitFirebase() error {
	credentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credentialsFile == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
	}
	opt := option.WithCredentialsFile(credentialsFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// SendPush delivers a notification to every registered device of a user.
// Failures are logged per token and never bubble up.
func SendPush(db *gorm.DB, userID uint, title, body string, data map[string]string) {
	if firebaseClient == nil {
		return
	}

	var tokens []Models.FCMToken
	if err := db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Printf("Error fetching FCM tokens for user %d: %v", userID, err)
		return
	}

	for _, token := range tokens {
		message := &messaging.Message{
			Token: token.Value,
			Data:  data,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			},
		}

		if _, err := firebaseClient.Send(ctx, message); err != nil {
			log.Printf("Error sending push to user %d: %v", userID, err)
		}
	}
}
