package api

import "strings"

// EngineStatus is the summarized lifecycle state of an engine.
type EngineStatus string

// Engine status values as reported by the API.
const (
	EngineStatusUnspecified            EngineStatus = "ENGINE_STATUS_SUMMARY_UNSPECIFIED"
	EngineStatusStopped                EngineStatus = "ENGINE_STATUS_SUMMARY_STOPPED"
	EngineStatusStarting               EngineStatus = "ENGINE_STATUS_SUMMARY_STARTING"
	EngineStatusStartingInitializing   EngineStatus = "ENGINE_STATUS_SUMMARY_STARTING_INITIALIZING"
	EngineStatusRunning                EngineStatus = "ENGINE_STATUS_SUMMARY_RUNNING"
	EngineStatusUpgrading              EngineStatus = "ENGINE_STATUS_SUMMARY_UPGRADING"
	EngineStatusRestarting             EngineStatus = "ENGINE_STATUS_SUMMARY_RESTARTING"
	EngineStatusRestartingInitializing EngineStatus = "ENGINE_STATUS_SUMMARY_RESTARTING_INITIALIZING"
	EngineStatusRepairing              EngineStatus = "ENGINE_STATUS_SUMMARY_REPAIRING"
	EngineStatusStopping               EngineStatus = "ENGINE_STATUS_SUMMARY_STOPPING"
	EngineStatusDeleting               EngineStatus = "ENGINE_STATUS_SUMMARY_DELETING"
	EngineStatusDeleted                EngineStatus = "ENGINE_STATUS_SUMMARY_DELETED"
	EngineStatusFailed                 EngineStatus = "ENGINE_STATUS_SUMMARY_FAILED"
)

const statusPrefix = "ENGINE_STATUS_SUMMARY_"

// String returns the raw API value.
func (s EngineStatus) String() string {
	return string(s)
}

// Short returns the status without its enum prefix, e.g. RUNNING.
func (s EngineStatus) Short() string {
	return strings.TrimPrefix(string(s), statusPrefix)
}

// Terminal reports whether the engine will not change state on its own.
func (s EngineStatus) Terminal() bool {
	switch s {
	case EngineStatusStopped, EngineStatusRunning, EngineStatusFailed, EngineStatusDeleted:
		return true
	}
	return false
}

// StatusSet is a set of engine states.
type StatusSet map[EngineStatus]struct{}

// NewStatusSet builds a set from the given states.
func NewStatusSet(states ...EngineStatus) StatusSet {
	set := make(StatusSet, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether s is in the set.
func (set StatusSet) Has(s EngineStatus) bool {
	_, ok := set[s]
	return ok
}
