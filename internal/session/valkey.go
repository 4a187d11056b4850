package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig configures the Valkey backend.
type ValkeyConfig struct {
	// URL is either a bare address ("valkey:6379") or a redis:// / rediss:// URL.
	URL string

	// Password overrides any password in URL.
	Password string

	// TLSEnabled enables TLS for bare addresses.
	TLSEnabled bool

	// KeyPrefix is prepended to every key (default: "agendabot:session:")
	KeyPrefix string

	// DB is the Valkey database number (default: 0)
	DB int
}

const (
	defaultValkeyKeyPrefix = "agendabot:session:"

	fieldCredential  = "credential"
	fieldLastEventID = "last_event_id"
	fieldUpdatedAt   = "updated_at"
)

// ValkeyStore keeps each session in a hash at KeyPrefix+userID.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore connects to Valkey.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	opt, err := valkeyClientOption(cfg)
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultValkeyKeyPrefix
	}
	return &ValkeyStore{client: client, prefix: prefix}, nil
}

func valkeyClientOption(cfg ValkeyConfig) (valkey.ClientOption, error) {
	var opt valkey.ClientOption
	if isValkeyURL(cfg.URL) {
		parsed, err := valkey.ParseURL(cfg.URL)
		if err != nil {
			return opt, fmt.Errorf("parse valkey url: %w", err)
		}
		opt = parsed
	} else {
		opt.InitAddress = []string{cfg.URL}
		if cfg.TLSEnabled {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.SelectDB = cfg.DB
	}
	return opt, nil
}

func isValkeyURL(s string) bool {
	for _, scheme := range []string{"redis://", "rediss://", "unix://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return true
		}
	}
	return false
}

func (s *ValkeyStore) key(userID string) string {
	return s.prefix + userID
}

// GetSession reads the session hash.
func (s *ValkeyStore) GetSession(ctx context.Context, userID string) (*Session, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.key(userID)).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return sessionFromHash(userID, fields)
}

// sessionFromHash decodes a stored hash. An empty hash means no session.
func sessionFromHash(userID string, fields map[string]string) (*Session, error) {
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	sess := &Session{
		UserID:      userID,
		Credential:  fields[fieldCredential],
		LastEventID: fields[fieldLastEventID],
	}
	if raw := fields[fieldUpdatedAt]; raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldUpdatedAt, err)
		}
		sess.UpdatedAt = time.Unix(unix, 0)
	}
	return sess, nil
}

// SaveCredential sets the credential field.
func (s *ValkeyStore) SaveCredential(ctx context.Context, userID, credential string) error {
	return s.set(ctx, userID, fieldCredential, credential)
}

// SaveLastEventID sets the last_event_id field.
func (s *ValkeyStore) SaveLastEventID(ctx context.Context, userID, eventID string) error {
	return s.set(ctx, userID, fieldLastEventID, eventID)
}

func (s *ValkeyStore) set(ctx context.Context, userID, field, value string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	cmd := s.client.B().Hset().Key(s.key(userID)).
		FieldValue().
		FieldValue(field, value).
		FieldValue(fieldUpdatedAt, strconv.FormatInt(time.Now().Unix(), 10)).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("save %s: %w", field, err)
	}
	return nil
}

// Ping checks the connection.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close closes the client.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}
