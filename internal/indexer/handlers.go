package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/mq"
)

// handleVersionCreated обрабатывает событие о новой версии процесса.
//
// Некорректные события и удалённые версии подтверждаются (mq.Drop):
// повтор их не исправит. Ошибки хранилища возвращаются как есть,
// и сообщение уходит обратно в очередь.
func (ix *Indexer) handleVersionCreated(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != mq.MessageTypeVersionCreated {
		return mq.Drop(fmt.Errorf("unexpected message type %q", delivery.Message.Type))
	}

	payload, err := mq.ParsePayload[mq.VersionCreatedPayload](&delivery.Message)
	if err != nil {
		return mq.Drop(fmt.Errorf("parse version_created payload: %w", err))
	}
	if payload.ProcessID == uuid.Nil || payload.Version <= 0 {
		return mq.Drop(fmt.Errorf("invalid version_created payload: %+v", payload))
	}

	ix.logger.Debug("received version_created event",
		"process_id", payload.ProcessID,
		"version", payload.Version,
	)

	if _, err := ix.Index(ctx, payload.ProcessID, payload.Version); err != nil {
		if errors.Is(err, ErrVersionGone) {
			return mq.Drop(err)
		}
		return err
	}

	return nil
}
