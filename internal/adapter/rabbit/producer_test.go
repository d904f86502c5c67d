package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

type published struct {
	exchange, key, correlationID string
	body                         []byte
}

type fakeClient struct {
	failures int
	sent     []published
	calls    int
}

func (f *fakeClient) Publish(_ context.Context, exchange, key, correlationID string, body []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("channel closed")
	}
	f.sent = append(f.sent, published{exchange, key, correlationID, body})
	return nil
}

func TestEventProducer_PublishTripAssigned(t *testing.T) {
	client := &fakeClient{}
	p := NewEventProducer(client)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := p.PublishTripAssigned(context.Background(), models.TripAssignedMessage{
		TripID: "T1", DriverID: "D1", PassengerID: "P1", AssignedAt: at, CorrelationID: "req-1",
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)

	msg := client.sent[0]
	assert.Equal(t, types.DispatchExchange, msg.exchange)
	assert.Equal(t, "trip.assigned", msg.key)
	assert.Equal(t, "req-1", msg.correlationID)

	var decoded models.TripAssignedMessage
	require.NoError(t, json.Unmarshal(msg.body, &decoded))
	assert.Equal(t, "D1", decoded.DriverID)
	assert.True(t, at.Equal(decoded.AssignedAt))
}

func TestEventProducer_RetriesThenFails(t *testing.T) {
	client := &fakeClient{failures: publishAttempts}
	p := NewEventProducer(client)

	err := p.PublishDriverStatus(context.Background(), models.DriverStatusMessage{DriverID: "D2", Status: types.DriverOffline})
	require.Error(t, err)
	assert.Equal(t, publishAttempts, client.calls)
	assert.Empty(t, client.sent)
}

func TestEventProducer_RecoversWithinAttempts(t *testing.T) {
	client := &fakeClient{failures: 1}
	p := NewEventProducer(client)

	err := p.PublishDriverStatus(context.Background(), models.DriverStatusMessage{DriverID: "D2", Status: types.DriverOffline})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, "driver.status.offline", client.sent[0].key)
}
