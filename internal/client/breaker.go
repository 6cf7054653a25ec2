package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brimasouk/internal/metrics"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrGatewayUnavailable is returned while the breaker refuses calls.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

func newCircuitBreaker(name string, l *log.Logger) *gobreaker.CircuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(state)

			l.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

type breakerGateway struct {
	cb    *gobreaker.CircuitBreaker
	inner PaymentGateway
}

// WithCircuitBreaker guards every gateway call with a breaker named name.
// NonceCharger support of inner is preserved.
func WithCircuitBreaker(name string, inner PaymentGateway, l *log.Logger) PaymentGateway {
	g := &breakerGateway{cb: newCircuitBreaker(name, l), inner: inner}
	if _, ok := inner.(NonceCharger); ok {
		return &breakerNonceGateway{breakerGateway: g}
	}
	return g
}

func (g *breakerGateway) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := g.cb.Execute(fn)
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(g.cb.Name()).Inc()
	}
	return result, formatBreakerError(g.cb.Name(), err)
}

func (g *breakerGateway) CreatePaymentSession(ctx context.Context, order PaymentOrder) (*PaymentSession, error) {
	result, err := g.execute(func() (interface{}, error) {
		return g.inner.CreatePaymentSession(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PaymentSession), nil
}

func (g *breakerGateway) VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error) {
	result, err := g.execute(func() (interface{}, error) {
		return g.inner.VerifyPayment(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PaymentVerification), nil
}

type breakerNonceGateway struct {
	*breakerGateway
}

func (g *breakerNonceGateway) ChargeNonce(ctx context.Context, nonce string, order PaymentOrder) (*PaymentVerification, error) {
	charger := g.inner.(NonceCharger)
	result, err := g.execute(func() (interface{}, error) {
		return charger.ChargeNonce(ctx, nonce, order)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PaymentVerification), nil
}

func formatBreakerError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker %s: %w: %v", name, ErrGatewayUnavailable, err)
	}
	return err
}
