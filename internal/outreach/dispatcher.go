package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// BulkResult is the ordered outcome of a batch plus its totals.
// Outcomes[i] always belongs to the i-th submitted message.
type BulkResult struct {
	Outcomes []Outcome
	Sent     int
	Failed   int
}

// Dispatcher delivers messages strictly one at a time, pausing between them.
type Dispatcher struct {
	pacing  time.Duration
	timeout time.Duration
	log     *slog.Logger
	metrics *Metrics
}

// NewDispatcher creates a dispatcher that waits pacing between messages and
// gives each delivery attempt at most timeout (zero disables the limit). A
// mailbox attempt and its relay fallback are timed separately.
func NewDispatcher(pacing, timeout time.Duration, log *slog.Logger, metrics *Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{pacing: pacing, timeout: timeout, log: log, metrics: metrics}
}

// SendBulk delivers msgs in order through ch. A failing or panicking delivery
// never stops the batch. When ctx ends, the remaining messages are reported as
// failed without being attempted.
func (d *Dispatcher) SendBulk(ctx context.Context, ch Channel, msgs []Message) BulkResult {
	res := BulkResult{Outcomes: make([]Outcome, 0, len(msgs))}

	for i, msg := range msgs {
		if i > 0 && d.pacing > 0 {
			if err := sleep(ctx, d.pacing); err != nil {
				res.skipRest(msgs[i:], err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			res.skipRest(msgs[i:], err)
			break
		}

		out := d.deliver(ctx, ch, msg)
		d.metrics.delivery(out)
		if out.Success {
			res.Sent++
		} else {
			res.Failed++
			d.log.WarnContext(ctx, "delivery failed",
				slog.String("prospect_id", msg.ProspectID.String()),
				slog.String("channel", out.Channel),
				slog.String("reason", out.Reason))
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	return res
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, msg Message) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{ProspectID: msg.ProspectID, To: msg.To, Channel: ch.Name(), Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	out = ch.Deliver(withAttemptTimeout(ctx, d.timeout), msg)
	out.ProspectID = msg.ProspectID
	out.To = msg.To
	return out
}

func (r *BulkResult) skipRest(msgs []Message, cause error) {
	for _, m := range msgs {
		r.Outcomes = append(r.Outcomes, Outcome{
			ProspectID: m.ProspectID,
			To:         m.To,
			Reason:     "not attempted: " + cause.Error(),
		})
		r.Failed++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maxAttempts is the most delivery attempts one message gets: the primary
// channel plus one fallback.
const maxAttempts = 2

// Budget is the longest a batch of n messages can take: n pauses plus n
// deliveries that each time out on both attempts.
func (d *Dispatcher) Budget(n int) time.Duration {
	return time.Duration(n) * (d.pacing + maxAttempts*d.timeout)
}
