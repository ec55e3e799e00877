// internal/notify/worker.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/campuslink/internal/models"
)

// Worker is the delivery side of the notification pipeline. It pops queued
// events off Redis, persists them to the notifications table, and pushes
// them to any live websocket subscribers through the hub. Retry lives here,
// not in the connection service: a failed persist puts the event back on the
// queue.
type Worker struct {
	rdb    *redis.Client
	pool   *pgxpool.Pool
	hub    *Hub
	queue  string
	logger *logrus.Logger

	ctx      context.Context
	cancelFn context.CancelFunc
}

func NewWorker(rdb *redis.Client, pool *pgxpool.Pool, hub *Hub, logger *logrus.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		rdb:      rdb,
		pool:     pool,
		hub:      hub,
		queue:    QueueName(),
		logger:   logger,
		ctx:      ctx,
		cancelFn: cancel,
	}
}

// Run blocks, consuming the queue until Stop is called.
func (w *Worker) Run() {
	w.logger.Infof("notifier worker consuming queue '%s'", w.queue)
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("notifier worker shutting down")
			return
		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := w.rdb.BLPop(w.ctx, 3*time.Second, w.queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.WithField("error", err).Error("BLPop failed")
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name, res[1] the payload.
			var qe QueuedEvent
			if err := json.Unmarshal([]byte(res[1]), &qe); err != nil {
				w.logger.WithField("error", err).Warn("discarding malformed queued event")
				continue
			}
			w.deliver(qe, []byte(res[1]))
		}
	}
}

// Stop signals Run to exit.
func (w *Worker) Stop() {
	w.cancelFn()
}

// deliver persists the notification and fans it out. On a persist failure
// the raw payload is requeued so the event is not lost.
func (w *Worker) deliver(qe QueuedEvent, raw []byte) {
	n := models.Notification{
		ID:              uuid.New(),
		UserID:          qe.UserID,
		Kind:            qe.Event.Kind,
		RelatedUserID:   qe.Event.RelatedUserID,
		RelatedUserName: qe.Event.RelatedUserName,
		CreatedAt:       time.UnixMilli(qe.Timestamp).UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := pgx.BeginTxFunc(ctx, w.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO notifications
				(id, user_id, kind, related_user_id, related_user_name, read, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		`
		_, execErr := tx.Exec(ctx, q,
			n.ID, n.UserID, n.Kind, n.RelatedUserID, n.RelatedUserName, n.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		w.logger.WithFields(logrus.Fields{
			"user_id": n.UserID,
			"kind":    n.Kind,
			"error":   err,
		}).Error("failed to persist notification, requeueing")
		if pushErr := w.rdb.RPush(ctx, w.queue, raw).Err(); pushErr != nil {
			w.logger.WithField("error", pushErr).Error("requeue failed, notification lost")
		}
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		w.logger.WithField("error", err).Warn("failed to marshal notification for push")
		return
	}
	w.hub.Publish(n.UserID, payload)
}
