package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Antigravity-finder/tabbycat/internal/logging"
	"github.com/Antigravity-finder/tabbycat/types"
)

const (
	// DefaultClaimBucket is the KV bucket holding shard claims.
	DefaultClaimBucket = "allocation-shards"

	// DefaultClaimTTL is the lease on a shard claim; an editor that vanishes
	// without releasing frees its shard after this long.
	DefaultClaimTTL = 30 * time.Second
)

// ShardClaimer hands each concurrent editor an exclusive shard index for a
// round, so two panels never sort and display overlapping slices.
//
// Claims are KV entries keyed by round and index; atomic Create decides the
// winner, a TTL lease plus periodic renewal keeps the claim alive, and
// Release frees the index for the next editor.
type ShardClaimer struct {
	kv        jetstream.KeyValue
	round     string
	sessionID string
	ttl       time.Duration

	index  int
	key    string
	stopCh chan struct{}
	doneCh chan struct{}

	logger types.Logger
}

// NewShardClaimer opens (or creates) the claim bucket on the given connection
// and returns a claimer bound to one round.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - conn: Established NATS connection with JetStream enabled
//   - bucket: KV bucket name (DefaultClaimBucket when empty)
//   - round: Round slug the claims belong to
//   - sessionID: This editor's session id, stored as the claim value
//   - ttl: Claim lease duration (DefaultClaimTTL when zero)
//   - logger: Logger, may be nil
//
// Returns:
//   - *ShardClaimer: Claimer ready for Claim
//   - error: JetStream or bucket error
func NewShardClaimer(
	ctx context.Context,
	conn *nats.Conn,
	bucket, round, sessionID string,
	ttl time.Duration,
	logger types.Logger,
) (*ShardClaimer, error) {
	if bucket == "" {
		bucket = DefaultClaimBucket
	}
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	kv, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, err
	}

	return &ShardClaimer{
		kv:        kv,
		round:     round,
		sessionID: sessionID,
		ttl:       ttl,
		index:     -1,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		logger:    logger,
	}, nil
}

// ensureBucket creates or opens a KV bucket, retrying transient failures.
// Concurrent editors race to create the same bucket on first load.
func ensureBucket(ctx context.Context, js jetstream.JetStream, config jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, config.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s: %w", config.Bucket, lastErr)
}

// Claim tries each shard index 0..split-1 in order until one is free, using
// atomic KV Create so exactly one editor wins each index.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - split: Total number of shards for the round
//
// Returns:
//   - int: Claimed shard index
//   - error: ErrNoAvailableShard when all indexes are held, context error,
//     or KV error
func (c *ShardClaimer) Claim(ctx context.Context, split int) (int, error) {
	for i := 0; i < split; i++ {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}

		key := c.keyForIndex(i)
		value := fmt.Sprintf("%s %s", c.sessionID, time.Now().Format(time.RFC3339))

		_, err := c.kv.Create(ctx, key, []byte(value))
		if err == nil {
			c.index = i
			c.key = key
			c.logger.Info("shard claimed", "round", c.round, "index", i, "session_id", c.sessionID)

			return i, nil
		}

		if !errors.Is(err, jetstream.ErrKeyExists) {
			return -1, fmt.Errorf("claim shard %d: %w", i, err)
		}
	}

	c.logger.Warn("no free shard", "round", c.round, "split", split)

	return -1, ErrNoAvailableShard
}

// StartRenewal keeps the claim's lease alive in the background until Release.
// Must follow a successful Claim.
func (c *ShardClaimer) StartRenewal(ctx context.Context) error {
	if c.index < 0 {
		return ErrNotClaimed
	}

	go c.renewalLoop(ctx)

	return nil
}

func (c *ShardClaimer) renewalLoop(ctx context.Context) {
	defer close(c.doneCh)

	// Renew at a third of the lease for safety margin.
	ticker := time.NewTicker(c.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			value := fmt.Sprintf("%s %s", c.sessionID, time.Now().Format(time.RFC3339))
			if _, err := c.kv.Put(ctx, c.key, []byte(value)); err != nil {
				c.logger.Warn("shard lease renewal failed", "key", c.key, "error", err)
			}
		}
	}
}

// Release frees the claimed shard index and stops renewal. Called on
// teardown so the next editor can take the slot immediately instead of
// waiting out the lease.
func (c *ShardClaimer) Release(ctx context.Context) error {
	if c.index < 0 {
		return ErrNotClaimed
	}

	close(c.stopCh)
	select {
	case <-c.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
	}

	if err := c.kv.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("release shard %d: %w", c.index, err)
	}
	c.index = -1
	c.key = ""

	return nil
}

// Index returns the claimed shard index, or -1 when none is held.
func (c *ShardClaimer) Index() int { return c.index }

func (c *ShardClaimer) keyForIndex(i int) string {
	return fmt.Sprintf("round.%s.shard.%d", c.round, i)
}
