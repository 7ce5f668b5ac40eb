package outreach_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/pkg/mailer"
)

func batch(n int) []outreach.Message {
	msgs := make([]outreach.Message, n)
	for i := range msgs {
		msgs[i] = outreach.Message{ProspectID: uuid.New(), To: "p@x.com", Subject: "s", Body: "b"}
	}
	return msgs
}

func TestDispatcher_SendBulk(t *testing.T) {
	t.Parallel()

	t.Run("keeps order and counts", func(t *testing.T) {
		t.Parallel()

		ch := newScriptedChannel(2, 4)
		msgs := batch(5)
		res := outreach.NewDispatcher(0, 0, discardLogger(), nil).SendBulk(context.Background(), ch, msgs)

		assert.Equal(t, 3, res.Sent)
		assert.Equal(t, 2, res.Failed)
		require.Len(t, res.Outcomes, 5)
		for i, o := range res.Outcomes {
			assert.Equal(t, msgs[i].ProspectID, o.ProspectID)
			assert.Equal(t, i != 1 && i != 3, o.Success, "message #%d", i+1)
		}

		delivered := ch.messages()
		require.Len(t, delivered, 5)
		for i := range msgs {
			assert.Equal(t, msgs[i].ProspectID, delivered[i].ProspectID)
		}
	})

	t.Run("paces between messages", func(t *testing.T) {
		t.Parallel()

		pacing := 20 * time.Millisecond
		ch := newScriptedChannel()

		var stamps []time.Time
		ch.onDeliver = func(int) { stamps = append(stamps, time.Now()) }

		start := time.Now()
		res := outreach.NewDispatcher(pacing, 0, discardLogger(), nil).SendBulk(context.Background(), ch, batch(3))
		elapsed := time.Since(start)

		assert.Equal(t, 3, res.Sent)
		require.Len(t, stamps, 3)
		for i := 1; i < len(stamps); i++ {
			assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), pacing)
		}
		// No pause after the last message.
		assert.Less(t, elapsed, 3*pacing+15*time.Millisecond)
	})

	t.Run("contains panics", func(t *testing.T) {
		t.Parallel()

		ch := newScriptedChannel()
		ch.panicAt[2] = true
		res := outreach.NewDispatcher(0, 0, discardLogger(), nil).SendBulk(context.Background(), ch, batch(3))

		assert.Equal(t, 2, res.Sent)
		assert.Equal(t, 1, res.Failed)
		assert.False(t, res.Outcomes[1].Success)
		assert.Equal(t, "fake", res.Outcomes[1].Channel)
		assert.Len(t, ch.messages(), 3)
	})

	t.Run("cancellation during pause skips the rest", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		ch := newScriptedChannel()
		ch.onDeliver = func(n int) {
			if n == 1 {
				go func() {
					time.Sleep(5 * time.Millisecond)
					cancel()
				}()
			}
		}

		res := outreach.NewDispatcher(time.Second, 0, discardLogger(), nil).SendBulk(ctx, ch, batch(4))

		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 3, res.Failed)
		require.Len(t, res.Outcomes, 4)
		for _, o := range res.Outcomes[1:] {
			assert.Contains(t, o.Reason, "not attempted: context canceled")
		}
		assert.Len(t, ch.messages(), 1)
	})

	t.Run("already cancelled attempts nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ch := newScriptedChannel()
		res := outreach.NewDispatcher(0, 0, discardLogger(), nil).SendBulk(ctx, ch, batch(2))
		assert.Equal(t, 0, res.Sent)
		assert.Equal(t, 2, res.Failed)
		assert.Empty(t, ch.messages())
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		res := outreach.NewDispatcher(time.Second, 0, discardLogger(), nil).SendBulk(context.Background(), newScriptedChannel(), nil)
		assert.Zero(t, res.Sent)
		assert.Zero(t, res.Failed)
		assert.Empty(t, res.Outcomes)
	})
}

func TestDispatcher_Budget(t *testing.T) {
	t.Parallel()

	d := outreach.NewDispatcher(time.Second, 10*time.Second, nil, nil)
	assert.Equal(t, 63*time.Second, d.Budget(3))
}

// hangingSender blocks until its attempt deadline expires.
func hangingSender() mailer.Sender {
	return mailer.SenderFunc(func(ctx context.Context, _ *mailer.Email) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

// deadlineAwareSender succeeds unless its context is already done.
func deadlineAwareSender(calls *int) mailer.Sender {
	return mailer.SenderFunc(func(ctx context.Context, _ *mailer.Email) error {
		*calls++
		return ctx.Err()
	})
}

func TestDispatcher_AttemptTimeout(t *testing.T) {
	t.Parallel()

	const timeout = 50 * time.Millisecond

	t.Run("hung mailbox falls back to relay with a fresh deadline", func(t *testing.T) {
		t.Parallel()

		relayCalls := 0
		ch := outreach.WithFallback(
			outreach.NewSenderChannel(outreach.ChannelMailbox, hangingSender(), nil),
			outreach.NewSenderChannel(outreach.ChannelRelay, deadlineAwareSender(&relayCalls), nil),
			nil,
		)

		res := outreach.NewDispatcher(0, timeout, discardLogger(), nil).SendBulk(context.Background(), ch, batch(1))

		assert.Equal(t, 1, relayCalls)
		assert.Equal(t, 1, res.Sent)
		assert.Zero(t, res.Failed)
		require.Len(t, res.Outcomes, 1)
		assert.True(t, res.Outcomes[0].Success)
		assert.Equal(t, outreach.ChannelRelay, res.Outcomes[0].Channel)
	})

	t.Run("hung relay still times out", func(t *testing.T) {
		t.Parallel()

		ch := outreach.NewSenderChannel(outreach.ChannelRelay, hangingSender(), nil)

		start := time.Now()
		res := outreach.NewDispatcher(0, timeout, discardLogger(), nil).SendBulk(context.Background(), ch, batch(1))

		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, res.Failed)
		assert.Contains(t, res.Outcomes[0].Reason, context.DeadlineExceeded.Error())
	})

	t.Run("both attempts hung", func(t *testing.T) {
		t.Parallel()

		ch := outreach.WithFallback(
			outreach.NewSenderChannel(outreach.ChannelMailbox, hangingSender(), nil),
			outreach.NewSenderChannel(outreach.ChannelRelay, hangingSender(), nil),
			nil,
		)

		res := outreach.NewDispatcher(0, timeout, discardLogger(), nil).SendBulk(context.Background(), ch, batch(1))

		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, outreach.ChannelRelay, res.Outcomes[0].Channel)
		assert.Contains(t, res.Outcomes[0].Reason, "mailbox: ")
	})
}
