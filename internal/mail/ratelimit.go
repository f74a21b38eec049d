package mail

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
)

const msgRateLimited = "Rate limit exceeded. Please try again later."

var errQuotaExhausted = errors.New("e-mail quota exhausted")

// Quota is the limiter state stored under kv.KeyEmailsSentToday.
type Quota struct {
	LastSent int64 `json:"lastSent"` // unix ms
	Count    int   `json:"count"`
}

// RateLimiter allows Limit sends while less than Window has passed since the
// last one. The count starts over once a full Window goes by without a send.
// Slots are taken and given back in a single Store.Update each, so parallel
// senders never overshoot Limit.
type RateLimiter struct {
	Store  kv.Store
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

func NewRateLimiter(store kv.Store, limit int) *RateLimiter {
	return &RateLimiter{Store: store, Limit: limit, Window: time.Hour, Now: time.Now}
}

type Decision struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// Reservation is a taken slot. Release hands it back when the send failed.
type Reservation struct {
	prev Quota
	at   int64
}

// Reserve takes one slot if the quota allows it.
func (r *RateLimiter) Reserve(ctx context.Context) (Decision, *Reservation, error) {
	now := r.now().UnixMilli()
	var res *Reservation
	err := kv.UpdateJSON(ctx, r.Store, kv.KeyEmailsSentToday, func(q Quota) (Quota, error) {
		res = nil
		prev := q
		if now-q.LastSent >= r.Window.Milliseconds() {
			q.Count = 0
		}
		if q.Count >= r.Limit {
			return q, errQuotaExhausted
		}
		q.Count++
		q.LastSent = now
		res = &Reservation{prev: prev, at: now}
		return q, nil
	})
	if errors.Is(err, errQuotaExhausted) {
		return Decision{Allowed: false, Message: msgRateLimited}, nil, nil
	}
	if err != nil {
		return Decision{}, nil, err
	}
	return Decision{Allowed: true}, res, nil
}

// Release gives back a slot whose send did not go out. The last-sent stamp
// is rolled back only when no later send moved it.
func (r *RateLimiter) Release(ctx context.Context, res *Reservation) error {
	if res == nil {
		return nil
	}
	return kv.UpdateJSON(ctx, r.Store, kv.KeyEmailsSentToday, func(q Quota) (Quota, error) {
		if q.Count > 0 {
			q.Count--
		}
		if q.LastSent == res.at {
			q.LastSent = res.prev.LastSent
		}
		return q, nil
	})
}

// MarkDelivered stamps kv.KeyLastEmailSent after the provider accepted a mail.
func (r *RateLimiter) MarkDelivered(ctx context.Context, res *Reservation) error {
	if res == nil {
		return nil
	}
	return r.Store.Set(ctx, kv.KeyLastEmailSent, strconv.FormatInt(res.at, 10))
}

// Usage reports the stored quota; a missing document is a zero Quota.
func (r *RateLimiter) Usage(ctx context.Context) (Quota, error) {
	q, _, err := kv.GetJSON[Quota](ctx, r.Store, kv.KeyEmailsSentToday)
	return q, err
}

func (r *RateLimiter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
