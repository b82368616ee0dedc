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

func (r repo) AddMashup(ctx context.Context, params *session.AddMashupParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.rc.Exists(ctx, r.getStateKey(params.SessionId)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return session.ErrSessionNotFound
	}

	payload, err := json.Marshal(params.Mashup)
	if err != nil {
		return fmt.Errorf("failed to marshal mashup: %w", err)
	}

	pipe := r.rc.TxPipeline()

	mashupKey := r.getMashupKey(params.SessionId, params.Mashup.ID)
	pipe.Set(ctx, mashupKey, payload, r.expireDuration)

	mashupsKey := r.getMashupsKey(params.SessionId)
	r.addWithIncrement(ctx, pipe, mashupsKey, params.Mashup.ID)
	pipe.Expire(ctx, mashupsKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add mashup: %w", err)
	}

	return nil
}

func (r repo) GetMashup(ctx context.Context, params *session.GetMashupParams) (domain.Mashup, error) {
	data, err := r.rc.Get(ctx, r.getMashupKey(params.SessionId, params.MashupId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Mashup{}, session.ErrMashupNotFound
		}
		return domain.Mashup{}, fmt.Errorf("failed to get mashup: %w", err)
	}

	var mashup domain.Mashup
	if err := json.Unmarshal(data, &mashup); err != nil {
		return domain.Mashup{}, fmt.Errorf("failed to unmarshal mashup: %w", err)
	}

	return mashup, nil
}

// GetMashups returns the session's mashups, oldest first.
func (r repo) GetMashups(ctx context.Context, sessionId string) ([]domain.Mashup, error) {
	ids, err := r.rc.ZRange(ctx, r.getMashupsKey(sessionId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get mashup ids: %w", err)
	}

	mashups := make([]domain.Mashup, 0, len(ids))
	for _, id := range ids {
		mashup, err := r.GetMashup(ctx, &session.GetMashupParams{
			SessionId: sessionId,
			MashupId:  id,
		})
		if err != nil {
			if errors.Is(err, session.ErrMashupNotFound) {
				continue
			}
			return nil, err
		}

		mashups = append(mashups, mashup)
	}

	return mashups, nil
}
