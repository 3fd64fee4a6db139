package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordSessionStart()
	m.RecordFrame("pcm16", -20)
	m.RecordDetection("hostile", "detected")
	m.RecordReaction("target")
	m.ObservePass(time.Millisecond)
	m.SetEngineState(1, 0, 0)
	m.RecordError("decode", "audio")
	m.RecordSessionEnd()
}

func TestMetrics_RecordDetection(t *testing.T) {
	m := NewSessionMetrics("test-session")

	before := testutil.ToFloat64(detections.WithLabelValues("neutral", "detected"))
	m.RecordDetection("neutral", "detected")
	m.RecordDetection("neutral", "detected")
	after := testutil.ToFloat64(detections.WithLabelValues("neutral", "detected"))

	if after-before != 2 {
		t.Errorf("Expected detections to grow by 2, got %f", after-before)
	}
}

func TestMetrics_SetEngineState(t *testing.T) {
	m := NewSessionMetrics("test-session")
	base := testutil.ToFloat64(trackedEntities)
	baseFollow := testutil.ToFloat64(activeSessions.WithLabelValues("follow"))

	m.SetEngineState(7, 2, 1)
	m.SetEngineState(5, 2, 1)

	if got := testutil.ToFloat64(trackedEntities) - base; got != 5 {
		t.Errorf("Expected 5 tracked entities, got %f", got)
	}
	if got := testutil.ToFloat64(activeSessions.WithLabelValues("follow")) - baseFollow; got != 1 {
		t.Errorf("Expected 1 follow session, got %f", got)
	}
	m.SetEngineState(0, 0, 0)
}

func TestMetrics_SetEngineStateSumsSessions(t *testing.T) {
	a := NewSessionMetrics("session-a")
	b := NewSessionMetrics("session-b")
	base := testutil.ToFloat64(trackedEntities)
	baseFlee := testutil.ToFloat64(activeSessions.WithLabelValues("flee"))

	a.RecordSessionStart()
	b.RecordSessionStart()
	a.SetEngineState(10, 2, 0)
	b.SetEngineState(3, 1, 0)

	if got := testutil.ToFloat64(trackedEntities) - base; got != 13 {
		t.Errorf("Expected 13 tracked entities across sessions, got %f", got)
	}
	if got := testutil.ToFloat64(activeSessions.WithLabelValues("flee")) - baseFlee; got != 3 {
		t.Errorf("Expected 3 flee sessions across sessions, got %f", got)
	}

	a.RecordSessionEnd()
	if got := testutil.ToFloat64(trackedEntities) - base; got != 3 {
		t.Errorf("Expected 3 tracked entities after session end, got %f", got)
	}
	if got := testutil.ToFloat64(activeSessions.WithLabelValues("flee")) - baseFlee; got != 1 {
		t.Errorf("Expected 1 flee session after session end, got %f", got)
	}

	b.RecordSessionEnd()
	if got := testutil.ToFloat64(trackedEntities) - base; got != 0 {
		t.Errorf("Expected tracked entities back at baseline, got %f", got)
	}
}

func TestMetrics_RecordGroupAlertsIgnoresZero(t *testing.T) {
	m := NewSessionMetrics("test-session")
	before := testutil.ToFloat64(groupAlerts)
	m.RecordGroupAlerts(0)
	m.RecordGroupAlerts(3)
	if got := testutil.ToFloat64(groupAlerts) - before; got != 3 {
		t.Errorf("Expected group alerts to grow by 3, got %f", got)
	}
}
