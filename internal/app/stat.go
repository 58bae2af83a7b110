package app

import (
	"sync"

	"github.com/circleous/repo-maker/internal/command"
)

type commandStat struct {
	mu           sync.Mutex
	deliveries   uint
	ignored      uint
	outcomes     map[command.Outcome]uint
	failedGrants uint
}

type statSnapshot struct {
	Deliveries   uint                     `json:"deliveries"`
	Ignored      uint                     `json:"ignored"`
	Outcomes     map[command.Outcome]uint `json:"outcomes"`
	FailedGrants uint                     `json:"failed_grants"`
}

func (cs *commandStat) IncreaseDeliveries(value uint) {
	cs.mu.Lock()
	cs.deliveries += value
	cs.mu.Unlock()
}

func (cs *commandStat) IncreaseIgnored(value uint) {
	cs.mu.Lock()
	cs.ignored += value
	cs.mu.Unlock()
}

func (cs *commandStat) Record(outcome command.Outcome, failedGrants int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.outcomes == nil {
		cs.outcomes = make(map[command.Outcome]uint)
	}
	cs.outcomes[outcome]++
	cs.failedGrants += uint(failedGrants)
}

func (cs *commandStat) Snapshot() statSnapshot {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	outcomes := make(map[command.Outcome]uint, len(cs.outcomes))
	for k, v := range cs.outcomes {
		outcomes[k] = v
	}

	return statSnapshot{
		Deliveries:   cs.deliveries,
		Ignored:      cs.ignored,
		Outcomes:     outcomes,
		FailedGrants: cs.failedGrants,
	}
}
