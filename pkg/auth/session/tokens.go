package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	redisclient "github.com/rentwise/rentwise-backend/pkg/redis"
)

// Purpose scopes a one-time token so an invite token cannot reset a password.
type Purpose string

const (
	PurposeInvite        Purpose = "invite"
	PurposePasswordReset Purpose = "reset"
)

var ErrInvalidOneTimeToken = errors.New("invalid or expired token")

type oneTimeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	OneTimeTokenKey(purpose, token string) string
}

// OneTimeTokens issues and consumes single-use tokens that resolve to a user id.
type OneTimeTokens struct {
	store oneTimeStore
}

func NewOneTimeTokens(client *redisclient.Client) (*OneTimeTokens, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &OneTimeTokens{store: client}, nil
}

// Issue stores a fresh token for userID that expires after ttl.
func (o *OneTimeTokens) Issue(ctx context.Context, purpose Purpose, userID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := o.store.Set(ctx, o.store.OneTimeTokenKey(string(purpose), token), userID.String(), ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume resolves token to its user id and deletes it in the same round trip.
func (o *OneTimeTokens) Consume(ctx context.Context, purpose Purpose, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrInvalidOneTimeToken
	}
	raw, err := o.store.GetDel(ctx, o.store.OneTimeTokenKey(string(purpose), token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return uuid.Nil, ErrInvalidOneTimeToken
		}
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidOneTimeToken
	}
	return id, nil
}
