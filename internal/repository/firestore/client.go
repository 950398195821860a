package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"dispatch/internal/repository"
)

const (
	companiesCollection = "companies"
	ridersCollection    = "dispatch_riders"
	ordersCollection    = "orders"
)

// NewClient opens a Firestore client through the Firebase Admin SDK.
// An empty credentialsFile falls back to application default credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore client: %w", err)
	}
	return client, nil
}

var (
	_ repository.CompanyRepository    = (*CompanyRepository)(nil)
	_ repository.RiderRepository      = (*RiderRepository)(nil)
	_ repository.OrderRepository      = (*OrderRepository)(nil)
	_ repository.AssignmentRepository = (*AssignmentRepository)(nil)
)
