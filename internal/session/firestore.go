package session

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig configures the Firestore backend.
type FirestoreConfig struct {
	ProjectID string

	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string

	// Collection holds one document per identity (default: "users").
	Collection string
}

const defaultFirestoreCollection = "users"

// firestoreSession is the stored document shape.
type firestoreSession struct {
	RefreshToken string    `firestore:"refreshToken,omitempty"`
	LastEventID  string    `firestore:"lastEventId,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt,omitempty"`
}

// FirestoreStore keeps each session in a document named after the identity.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore connects to Firestore.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

// GetSession reads the identity's document.
func (s *FirestoreStore) GetSession(ctx context.Context, userID string) (*Session, error) {
	snap, err := s.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var stored firestoreSession
	if err := snap.DataTo(&stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return stored.toSession(userID), nil
}

func (d firestoreSession) toSession(userID string) *Session {
	return &Session{
		UserID:      userID,
		Credential:  d.RefreshToken,
		LastEventID: d.LastEventID,
		UpdatedAt:   d.UpdatedAt,
	}
}

// SaveCredential merges the refresh token into the document.
func (s *FirestoreStore) SaveCredential(ctx context.Context, userID, credential string) error {
	return s.merge(ctx, userID, "refreshToken", credential)
}

// SaveLastEventID merges the last event id into the document.
func (s *FirestoreStore) SaveLastEventID(ctx context.Context, userID, eventID string) error {
	return s.merge(ctx, userID, "lastEventId", eventID)
}

func (s *FirestoreStore) merge(ctx context.Context, userID, field, value string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	_, err := s.doc(userID).Set(ctx, map[string]interface{}{
		field:       value,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("save %s: %w", field, err)
	}
	return nil
}

// Ping lists at most one document of the collection.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.GetAll(); err != nil {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
