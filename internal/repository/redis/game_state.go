package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func stateKey(gameID string) string   { return "game:" + gameID + ":state" }
func versionKey(gameID string) string { return "game:" + gameID + ":version" }
func sessionKey(gameID string) string { return "game:" + gameID + ":session" }

// releaseScript deletes the session key only while owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SetGameState stores the live serialized field and bumps its version.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, stateKey(gameID), []byte(state), 0)
		incr = p.Incr(ctx, versionKey(gameID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("set game state: %w", err)
	}
	return incr.Val(), nil
}

// GetGameState returns the cached field and its version, or a nil state
// when the game is not cached.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, int64, error) {
	var state *redis.StringCmd
	var version *redis.StringCmd
	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		state = p.Get(ctx, stateKey(gameID))
		version = p.Get(ctx, versionKey(gameID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("get game state: %w", err)
	}
	data, err := state.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get game state: %w", err)
	}
	v, err := version.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("get game state version: %w", err)
	}
	return json.RawMessage(data), v, nil
}

// StateVersion returns the version counter, 0 when the game was never cached.
func (c *Client) StateVersion(ctx context.Context, gameID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(gameID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("state version: %w", err)
	}
	return v, nil
}

// AcquireSession claims the right to hold the in-memory turn session of a
// game for ttl. Re-acquiring by the current owner extends the lease.
func (c *Client) AcquireSession(ctx context.Context, gameID, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, sessionKey(gameID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire session: %w", err)
	}
	if ok {
		return true, nil
	}
	holder, err := c.rdb.Get(ctx, sessionKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return c.rdb.SetNX(ctx, sessionKey(gameID), owner, ttl).Result()
	}
	if err != nil {
		return false, fmt.Errorf("acquire session: %w", err)
	}
	if holder != owner {
		return false, nil
	}
	if err := c.rdb.Expire(ctx, sessionKey(gameID), ttl).Err(); err != nil {
		return false, fmt.Errorf("extend session: %w", err)
	}
	return true, nil
}

func (c *Client) ReleaseSession(ctx context.Context, gameID, owner string) error {
	if err := releaseScript.Run(ctx, c.rdb, []string{sessionKey(gameID)}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release session: %w", err)
	}
	return nil
}

// DeleteGameData removes all Redis data for a game.
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID), versionKey(gameID), sessionKey(gameID)).Err()
}
