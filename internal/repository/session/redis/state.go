package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/session"
)

func (r repo) CreateState(ctx context.Context, state domain.State) error {
	r.logger.DebugContext(ctx, "called", "session_id", state.SessionID)
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	ok, err := r.rc.SetNX(ctx, r.getStateKey(state.SessionID), payload, r.expireDuration).Result()
	if err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	if !ok {
		return session.ErrSessionAlreadyExists
	}

	return nil
}

func (r repo) GetState(ctx context.Context, sessionId string) (domain.State, error) {
	stateKey := r.getStateKey(sessionId)
	data, err := r.rc.Get(ctx, stateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.State{}, session.ErrSessionNotFound
		}
		return domain.State{}, fmt.Errorf("failed to get state: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.State{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	r.touch(ctx, sessionId)

	return state, nil
}

// UpdateState applies fn to the stored state inside a WATCH transaction,
// retrying when another writer changed the state in between.
func (r repo) UpdateState(ctx context.Context, sessionId string, fn session.UpdateFunc) (domain.State, error) {
	stateKey := r.getStateKey(sessionId)

	var updated domain.State
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, stateKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return session.ErrSessionNotFound
			}
			return err
		}

		var state domain.State
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal state: %w", err)
		}

		next, err := fn(state)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, stateKey, payload, r.expireDuration)
			return nil
		}); err != nil {
			return err
		}

		updated = next
		return nil
	}

	for i := 0; i < r.maxRetries; i++ {
		err := r.rc.Watch(ctx, txf, stateKey)
		if err == nil {
			r.touch(ctx, sessionId)
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.DebugContext(ctx, "state update conflict, retrying", "session_id", sessionId, "attempt", i+1)
			continue
		}

		return domain.State{}, err
	}

	return domain.State{}, session.ErrTooManyRetries
}

// touch extends the idle expiry of the session state and its mashups so
// they all live exactly as long as the session is used.
func (r repo) touch(ctx context.Context, sessionId string) {
	mashupsKey := r.getMashupsKey(sessionId)
	ids, err := r.rc.ZRange(ctx, mashupsKey, 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "failed to list mashups", "session_id", sessionId, "error", err)
		return
	}

	pipe := r.rc.Pipeline()
	pipe.Expire(ctx, r.getStateKey(sessionId), r.expireDuration)
	if len(ids) > 0 {
		pipe.Expire(ctx, mashupsKey, r.expireDuration)
		for _, id := range ids {
			pipe.Expire(ctx, r.getMashupKey(sessionId, id), r.expireDuration)
		}
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "failed to extend session expiry", "session_id", sessionId, "error", err)
	}
}
