// Package notify dispatches user-facing notifications without blocking the
// request that triggered them.
package notify

import (
	"context"
	"sync"
	"time"

	"brimasouk/internal/config"
	"brimasouk/internal/metrics"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 5 * time.Second

type Kind string

const (
	OrderCreated       Kind = "order_created"
	OrderCancelled     Kind = "order_cancelled"
	OrderStatusChanged Kind = "order_status_changed"
	OrderPaid          Kind = "order_paid"
	EventBooked        Kind = "event_booked"
	ReservationCancel  Kind = "reservation_cancelled"
	ArtisanReviewed    Kind = "artisan_reviewed"
	ProductReviewed    Kind = "product_reviewed"
)

type Notification struct {
	Kind    Kind           `json:"type"`
	UserID  string         `json:"userId"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type Notifier interface {
	// Notify never blocks on delivery and never fails the caller.
	Notify(n Notification)
	// Close stops accepting notifications and waits for in-flight deliveries.
	Close(ctx context.Context) error
}

type notifierImpl struct {
	l          *log.Logger
	http       *resty.Client
	webhookURL string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotifier(cfg config.Notification, l *log.Logger) Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &notifierImpl{
		l:          l,
		http:       resty.New().SetTimeout(timeout).SetRetryCount(0),
		webhookURL: cfg.WebhookURL,
	}
}

func (n *notifierImpl) Notify(notification Notification) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.l.WithField("type", notification.Kind).Warn("notifier closed, dropping notification")
		metrics.NotificationsDropped.Inc()
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		n.deliver(notification)
	}()
}

func (n *notifierImpl) deliver(notification Notification) {
	entry := n.l.WithFields(log.Fields{
		"type":   notification.Kind,
		"userId": notification.UserID,
	})
	entry.Info(notification.Title)

	if n.webhookURL == "" {
		return
	}

	resp, err := n.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(notification).
		Post(n.webhookURL)
	if err != nil {
		metrics.NotificationsDropped.Inc()
		entry.WithError(err).Warn("notification webhook failed")
		return
	}
	if resp.IsError() {
		metrics.NotificationsDropped.Inc()
		entry.WithField("status", resp.StatusCode()).Warn("notification webhook rejected")
	}
}

func (n *notifierImpl) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Noop discards everything. Useful where notifications are irrelevant.
type Noop struct{}

func (Noop) Notify(Notification)             {}
func (Noop) Close(ctx context.Context) error { return nil }

var _ Notifier = Noop{}
