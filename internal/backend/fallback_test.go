package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-intake-backend/internal/types"
)

type fakeSender struct {
	raw      []byte
	err      error
	blindErr error
	bodies   []string
	blind    int
}

func (f *fakeSender) Send(_ context.Context, _ string, body []byte) ([]byte, error) {
	f.bodies = append(f.bodies, string(body))
	return f.raw, f.err
}

func (f *fakeSender) SendBlind(_ context.Context, _ string, body []byte) error {
	f.blind++
	return f.blindErr
}

type payload struct {
	Name string `json:"name"`
}

func TestExecuteSuccess(t *testing.T) {
	s := &fakeSender{raw: []byte(`{"success":true,"name":"Harbor View"}`)}
	c := NewCoordinator(s, CoordinatorOptions{URL: "http://example", Delay: time.Second})

	res, err := Execute(context.Background(), c, NewEnvelope(types.ActionGetCompanyData, nil), &payload{Name: "canned"})
	require.NoError(t, err)
	assert.False(t, res.IsFallback)
	assert.Equal(t, "Harbor View", res.Value.Name)
	require.Len(t, s.bodies, 1)
	assert.JSONEq(t, `{"action":"getCompanyData"}`, s.bodies[0])
}

func TestExecuteWithSubstituteNeverFails(t *testing.T) {
	failures := []*fakeSender{
		{err: &NetworkError{URL: "http://example", Err: errors.New("dial tcp: refused")}},
		{err: &HTTPStatusError{StatusCode: 502}},
		{raw: []byte(`<html>You need permission</html>`)},
		{raw: []byte(`{"success":false,"error":"Sheet missing"}`)},
		{raw: []byte(`{"success":true,"name":42}`)},
	}
	for _, s := range failures {
		c := NewCoordinator(s, CoordinatorOptions{URL: "http://example"})
		res, err := Execute(context.Background(), c, NewEnvelope(types.ActionGetHistory, map[string]string{"propertyName": "A"}), &payload{Name: "canned"})
		require.NoError(t, err)
		assert.True(t, res.IsFallback)
		assert.Equal(t, "canned", res.Value.Name)
	}
}

func TestExecuteWithoutSubstituteReturnsUnderlyingError(t *testing.T) {
	netErr := &NetworkError{URL: "http://example", Err: errors.New("timeout")}
	c := NewCoordinator(&fakeSender{err: netErr}, CoordinatorOptions{})
	_, err := Execute[payload](context.Background(), c, NewEnvelope(types.ActionLogin, nil), nil)
	assert.Same(t, netErr, err)

	c = NewCoordinator(&fakeSender{raw: []byte(`{"success":false,"error":"Invalid access code"}`)}, CoordinatorOptions{})
	_, err = Execute[payload](context.Background(), c, NewEnvelope(types.ActionLogin, nil), nil)
	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Invalid access code", err.Error())

	c = NewCoordinator(&fakeSender{raw: []byte(`Exception: Service invoked too many times`)}, CoordinatorOptions{})
	_, err = Execute[payload](context.Background(), c, NewEnvelope(types.ActionSubmitSurveyData, nil), nil)
	var failure *TransportFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, CauseBackendCrashed, failure.Cause)
}

func TestExecuteWaitsBeforeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	delay := 50 * time.Millisecond
	c := NewCoordinator(NewTransport(nil), CoordinatorOptions{URL: srv.URL, Delay: delay})
	start := time.Now()
	res, err := Execute(context.Background(), c, NewEnvelope(types.ActionGetCompanyData, nil), &payload{Name: "canned"})
	require.NoError(t, err)
	assert.True(t, res.IsFallback)
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestExecuteCancelledDuringDelayStillServesSubstitute(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCoordinator(&fakeSender{err: &HTTPStatusError{StatusCode: 500}}, CoordinatorOptions{Delay: time.Hour})

	res, err := Execute(ctx, c, NewEnvelope(types.ActionGetCompanyData, nil), &payload{Name: "canned"})
	require.NoError(t, err)
	assert.True(t, res.IsFallback)
}

func TestNewEnvelopeRejectsUnknownAction(t *testing.T) {
	assert.Panics(t, func() { NewEnvelope(types.Action("dropTables"), nil) })

	env := NewEnvelope(types.ActionTestChat, map[string]int64{"timestamp": 1})
	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"testChat","payload":{"timestamp":1}}`, string(b))
}

func TestCoordinatorSendBlind(t *testing.T) {
	s := &fakeSender{}
	c := NewCoordinator(s, CoordinatorOptions{})
	require.NoError(t, c.SendBlind(context.Background(), NewEnvelope(types.ActionTestChat, nil)))
	assert.Equal(t, 1, s.blind)
}

// upstreamSamples sums intake_upstream_requests_total for action across outcomes.
func upstreamSamples(t *testing.T, action types.Action) (total float64, byOutcome map[string]float64) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	byOutcome = map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "intake_upstream_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["action"] != string(action) {
				continue
			}
			v := m.GetCounter().GetValue()
			total += v
			byOutcome[labels["outcome"]] += v
		}
	}
	return total, byOutcome
}

func TestExecuteShapeMismatchCountedOnce(t *testing.T) {
	type directory struct {
		Companies []string `json:"companies"`
	}
	beforeTotal, before := upstreamSamples(t, types.ActionGetCompanyData)

	s := &fakeSender{raw: []byte(`{"success":true,"companies":"not-a-list"}`)}
	c := NewCoordinator(s, CoordinatorOptions{URL: "http://example"})
	_, err := Execute[directory](context.Background(), c, NewEnvelope(types.ActionGetCompanyData, nil), nil)

	var failure *TransportFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, CauseUnexpectedShape, failure.Cause)
	assert.Contains(t, err.Error(), "expected shape")

	afterTotal, after := upstreamSamples(t, types.ActionGetCompanyData)
	assert.Equal(t, 1.0, afterTotal-beforeTotal)
	assert.Equal(t, 1.0, after["unexpected_shape"]-before["unexpected_shape"])
	assert.Zero(t, after["success"]-before["success"])
}
