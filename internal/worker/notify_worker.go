package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printcalc/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	notifyQueueKey      = "printcalc:notify:queue"
	notifyDeadLetterKey = "printcalc:notify:deadletter"
	deadLetterLimit     = 200
)

var ErrQueueFull = errors.New("notification queue is full")

// Notification is a single HTML message for one operator chat.
type Notification struct {
	ChatID  int64  `json:"chat_id"`
	Text    string `json:"text"`
	Attempt int    `json:"attempt"`
}

type Sender interface {
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
}

// NotifyWorker delivers operator notifications with backoff. Redis is the
// primary queue, the buffered channel takes over when Redis is absent or down.
type NotifyWorker struct {
	sender       Sender
	redis        *redis.Client
	retryPolicy  RetryPolicy
	queue        chan Notification
	popTimeout   time.Duration
	pollInterval time.Duration
	logger       *zerolog.Logger
}

func NewNotifyWorker(sender Sender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NotifyWorker{
		sender:       sender,
		redis:        redisClient,
		retryPolicy:  retry.withDefaults(),
		queue:        make(chan Notification, 128),
		popTimeout:   time.Second,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}
}

// Enqueue schedules n for delivery.
func (w *NotifyWorker) Enqueue(ctx context.Context, n Notification) error {
	if n.ChatID == 0 || n.Text == "" {
		return errors.New("notification needs chat id and text")
	}

	if w.redis != nil {
		err := w.push(ctx, notifyQueueKey, n)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("chat_id", n.ChatID).Msg("Redis push failed, using memory queue")
	}

	select {
	case w.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start runs the delivery loop until ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	for ctx.Err() == nil {
		if n, ok := w.tryLocalQueue(); ok {
			w.process(ctx, n)
			continue
		}

		if w.redis == nil {
			select {
			case <-ctx.Done():
			case n := <-w.queue:
				w.process(ctx, n)
			}
			continue
		}

		n, err := w.pop(ctx)
		switch {
		case err == nil:
			w.process(ctx, n)
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
		default:
			w.logger.Warn().Err(err).Msg("Redis pop failed")
			w.sleep(ctx, w.pollInterval)
		}
	}
}

// DeadLetters returns notifications that ran out of retries, newest first.
func (w *NotifyWorker) DeadLetters(ctx context.Context) ([]Notification, error) {
	if w.redis == nil {
		return nil, nil
	}
	raw, err := w.redis.LRange(ctx, notifyDeadLetterKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (w *NotifyWorker) tryLocalQueue() (Notification, bool) {
	select {
	case n := <-w.queue:
		return n, true
	default:
		return Notification{}, false
	}
}

func (w *NotifyWorker) process(ctx context.Context, n Notification) {
	if _, err := w.sender.SendHTML(n.ChatID, n.Text); err != nil {
		w.retryOrFail(ctx, n, err)
		return
	}
	metrics.IncNotification("sent")
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, n Notification, cause error) {
	n.Attempt++
	if n.Attempt >= w.retryPolicy.MaxRetries {
		metrics.IncNotification("dead")
		w.logger.Error().Err(cause).Int64("chat_id", n.ChatID).Int("attempts", n.Attempt).Msg("Notification dropped")
		if w.redis != nil {
			if err := w.pushDeadLetter(ctx, n); err != nil {
				w.logger.Warn().Err(err).Msg("Dead letter push failed")
			}
		}
		return
	}

	metrics.IncNotification("retry")
	delay := w.retryPolicy.NextDelay(n.Attempt)
	w.logger.Warn().Err(cause).Int64("chat_id", n.ChatID).Dur("delay", delay).Msg("Notification failed, retrying")

	go func() {
		if !w.sleep(ctx, delay) {
			return
		}
		if err := w.Enqueue(ctx, n); err != nil {
			w.logger.Error().Err(err).Int64("chat_id", n.ChatID).Msg("Requeue failed")
		}
	}()
}

func (w *NotifyWorker) push(ctx context.Context, key string, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *NotifyWorker) pop(ctx context.Context) (Notification, error) {
	res, err := w.redis.BRPop(ctx, w.popTimeout, notifyQueueKey).Result()
	if err != nil {
		return Notification{}, err
	}
	if len(res) != 2 {
		return Notification{}, redis.Nil
	}

	var n Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		w.logger.Error().Err(err).Msg("Dropping undecodable notification")
		return Notification{}, redis.Nil
	}
	return n, nil
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, n Notification) error {
	if err := w.push(ctx, notifyDeadLetterKey, n); err != nil {
		return err
	}
	return w.redis.LTrim(ctx, notifyDeadLetterKey, 0, deadLetterLimit-1).Err()
}

func (w *NotifyWorker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
