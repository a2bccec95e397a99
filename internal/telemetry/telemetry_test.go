package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

var topics = Topics{Orientation: "gait/orientation", Search: "gait/search"}

func TestPublishOrientation(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, topics)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	require.NoError(t, p.PublishOrientation(orientation.Sample{Pitch: 1.5, Roll: -2}))
	require.Len(t, c.msgs, 1)
	assert.Equal(t, "gait/orientation", c.msgs[0].topic)
	assert.True(t, c.msgs[0].retained)

	m, err := DecodeOrientation(c.msgs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, 1.5, m.Pitch)
	assert.Equal(t, -2.0, m.Roll)
	assert.True(t, at.Equal(m.Time))
}

func TestPublishOrientationError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisher(&fakeClient{err: boom}, topics)
	assert.ErrorIs(t, p.PublishOrientation(orientation.Sample{}), boom)
}

func TestObservePublishesEvent(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, topics)

	p.Observe(search.Event{
		Kind:       search.EventAccepted,
		Iteration:  4,
		Correction: search.Correction{Pitch: -2},
		Score:      3.25,
		BestScore:  3.25,
	})

	require.Len(t, c.msgs, 1)
	assert.Equal(t, "gait/search", c.msgs[0].topic)
	e, err := DecodeEvent(c.msgs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, search.EventAccepted, e.Kind)
	assert.Equal(t, 4, e.Iteration)
	assert.Equal(t, -2.0, e.Correction.Pitch)
	assert.Equal(t, 3.25, e.BestScore)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte("{"))
	assert.Error(t, err)
	_, err = DecodeOrientation([]byte("nope"))
	assert.Error(t, err)
}
