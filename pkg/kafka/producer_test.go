package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func newTestProducer(w *captureWriter) *Producer {
	return NewProducerWithWriter(w, "unified-search.events", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishEntityImported(t *testing.T) {
	w := &captureWriter{}
	p := newTestProducer(w)

	err := p.PublishEntityImported(context.Background(), models.EntityImportedEvent{
		TenantID: "tenant-1",
		Link:     models.ImportLink{OdsID: "ods-1", ExternalID: "PMS-P005", ProviderSystemName: "pms", EntityType: "person"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "unified-search.events", msg.Topic)
	assert.Equal(t, "ods-1", string(msg.Key))
	assert.Equal(t, models.EventEntityImported, header(msg, "event_type"))
	assert.Equal(t, "tenant-1", header(msg, "tenant_id"))

	var decoded models.EntityImportedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "PMS-P005", decoded.Link.ExternalID)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestProducer_PublishMatchAmbiguous(t *testing.T) {
	w := &captureWriter{}
	p := newTestProducer(w)

	err := p.PublishMatchAmbiguous(context.Background(), "search-1", "", []models.MatchWarning{
		{ExternalID: "PMS-1", ProviderSystemName: "pms"},
		{ExternalID: "PMS-2", ProviderSystemName: "pms"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "pms:PMS-2", string(w.msgs[1].Key))
	assert.Equal(t, models.EventMatchAmbiguous, header(w.msgs[1], "event_type"))
}

func TestProducer_PublishSearchCompleted_WriterError(t *testing.T) {
	w := &captureWriter{err: errors.New("broker unavailable")}
	p := newTestProducer(w)

	err := p.PublishSearchCompleted(context.Background(), models.SearchCompletedEvent{SearchID: "search-1"})
	assert.Error(t, err)
}
