package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testOutcome(hour int, phi float64) zone.Outcome {
	return zone.Outcome{
		Zone:    "office",
		Hour:    hour,
		ThetaE:  5,
		Demand:  demand.DemandHeating,
		Active:  true,
		PhiHCNd: phi,
		Result:  rcmodel.Result{ThetaMT: 19.9, ThetaAir: 20, ThetaOp: 18.4},
	}
}

func TestFromOutcome(t *testing.T) {
	r := FromOutcome("run-1", start, testOutcome(25, -300))

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, start.Add(25*time.Hour), r.Time)
	assert.Equal(t, 0.0, r.HeatingLoad)
	assert.Equal(t, 300.0, r.CoolingLoad)
	assert.Equal(t, 19.9, r.ThetaM)
	assert.Equal(t, "heating", r.Demand)
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf)

	require.NoError(t, s.Emit(context.Background(), FromOutcome("run-1", start, testOutcome(0, 294.5))))
	require.NoError(t, s.Emit(context.Background(), FromOutcome("run-1", start, testOutcome(1, 120))))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "run_id,zone,hour,time,theta_e,theta_air"))
	assert.Contains(t, lines[1], "run-1,office,0,")
	assert.Contains(t, lines[2], ",120,")
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	s := newKafkaSink(w, nil)

	rec := FromOutcome("run-1", start, testOutcome(3, 500))
	require.NoError(t, s.Emit(context.Background(), rec))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "office", string(msg.Key))
	assert.Equal(t, rec.Time, msg.Time)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "office", got["zoneId"])
	assert.Equal(t, 500.0, got["heatingLoadW"])

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkWriteError(t *testing.T) {
	boom := errors.New("broker down")
	s := newKafkaSink(&fakeWriter{err: boom}, nil)

	err := s.Emit(context.Background(), FromOutcome("run-1", start, testOutcome(0, 0)))
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "zone.steps")
	assert.Equal(t, "zone.steps", w.Topic)
	assert.Equal(t, "localhost:9092", w.Addr.String())
}

func TestMultiSink(t *testing.T) {
	a, b := &fakeWriter{}, &fakeWriter{err: errors.New("nope")}
	m := MultiSink{newKafkaSink(a, nil), newKafkaSink(b, nil)}

	err := m.Emit(context.Background(), FromOutcome("run-1", start, testOutcome(0, 0)))
	assert.Error(t, err)
	assert.Len(t, a.msgs, 1)

	require.NoError(t, m.Close())
	assert.True(t, a.closed && b.closed)
}
