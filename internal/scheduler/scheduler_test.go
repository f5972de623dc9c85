package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexuscrm/formcalc/engine"
	"github.com/nexuscrm/formcalc/value"
)

func TestScheduler_RunOnceExecutesBatch(t *testing.T) {
	eng := engine.New()
	batch := []engine.FormulaInput{{Name: "r", Source: "return 2 + 2"}}

	s, err := New(eng, "@every 1h", batch, false)
	assert.NoError(t, err)

	s.runOnce()

	v, ok := eng.GetResult("r")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v.Number())
}

func TestScheduler_ClearBetweenRuns(t *testing.T) {
	eng := engine.New()
	eng.SetVariable("x", value.Num(10))
	batch := []engine.FormulaInput{{Name: "r", Source: "return x"}}

	s, err := New(eng, "@every 1h", batch, true)
	assert.NoError(t, err)

	s.runOnce()
	_, ok := eng.GetResult("r")
	assert.True(t, ok)

	// A second run clears the engine first; r must still be present
	// afterwards because the batch is re-executed after Clear.
	s.runOnce()
	_, ok = eng.GetResult("r")
	assert.True(t, ok)
}

func TestScheduler_InvalidCronSpec(t *testing.T) {
	eng := engine.New()
	_, err := New(eng, "not a cron spec", nil, false)
	assert.Error(t, err)
}

func TestScheduler_StartStopIsIdempotent(t *testing.T) {
	eng := engine.New()
	s, err := New(eng, "@every 1h", nil, false)
	assert.NoError(t, err)

	s.Start()
	s.Start() // second Start is a no-op, must not panic or double-register
	s.Stop()
	s.Stop() // second Stop is a no-op
}
