package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/notify"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	failWith  error
	closed    bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func unlockEvent() notify.Event {
	return notify.Event{
		Type:    notify.EventAchievementUnlocked,
		Title:   "Achievement Unlocked!",
		Message: "First Steps",
		At:      time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
		Data:    map[string]string{"key": "first_shift"},
	}
}

func TestAMQPNotifier_PublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	n, err := notify.NewAMQPNotifier(ch, "tracker_events", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tracker_events"}, ch.declared)

	require.NoError(t, n.Notify(context.Background(), unlockEvent()))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "tracker_events", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var decoded notify.Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, notify.EventAchievementUnlocked, decoded.Type)
	assert.Equal(t, "first_shift", decoded.Data["key"])

	require.NoError(t, n.Close())
	assert.True(t, ch.closed)
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	ch := &fakeChannel{failWith: errors.New("channel closed")}
	n, err := notify.NewAMQPNotifier(ch, "q", 0, nil)
	require.NoError(t, err)

	err = n.Notify(context.Background(), unlockEvent())
	assert.ErrorContains(t, err, "channel closed")
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	rec := &notify.Recorder{}
	failing, err := notify.NewAMQPNotifier(&fakeChannel{failWith: errors.New("down")}, "q", 0, nil)
	require.NoError(t, err)

	m := notify.Multi{rec, nil, failing}
	err = m.Notify(context.Background(), unlockEvent())

	assert.ErrorContains(t, err, "down")
	assert.Len(t, rec.Events(), 1, "healthy notifiers still receive the event")
}

func TestLogNotifier_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, notify.NewLogNotifier(logger).Notify(context.Background(), unlockEvent()))
	assert.Contains(t, buf.String(), "First Steps")
	assert.Contains(t, buf.String(), "key=first_shift")
	assert.Contains(t, buf.String(), "component=notify")
}
