// Package scheduler provides a reference periodic trigger that
// re-submits the same batch to an engine.Engine on a cron schedule.
// This is host-side convenience, not incremental evaluation: every
// triggered run is an independent, full Engine.Execute call over the
// same formula batch.
package scheduler

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/nexuscrm/formcalc/engine"
)

// Scheduler periodically re-executes a fixed batch against an Engine.
type Scheduler struct {
	eng   *engine.Engine
	batch []engine.FormulaInput
	clear bool

	cron *cron.Cron
	wg   sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New builds a scheduler that resubmits batch to eng whenever spec
// fires (standard five-field cron syntax). When clearBetweenRuns is
// true, Engine.Clear is called before each run so results never carry
// over across scheduled executions.
func New(eng *engine.Engine, spec string, batch []engine.FormulaInput, clearBetweenRuns bool) (*Scheduler, error) {
	s := &Scheduler{
		eng:   eng,
		batch: batch,
		clear: clearBetweenRuns,
		cron:  cron.New(),
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron loop; calling Start while already running is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts future runs and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) runOnce() {
	s.wg.Add(1)
	defer s.wg.Done()

	if s.clear {
		s.eng.Clear()
	}
	if err := s.eng.Execute(s.batch); err != nil {
		log.Printf("scheduler: batch execution failed: %v", err)
	}
}
