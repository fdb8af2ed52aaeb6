package domain

import (
	"fmt"
	"strings"
)

// Direction selects which side(s) the executor pushes to.
type Direction string

const (
	LocalToRemote Direction = "LOCAL_TO_REMOTE"
	RemoteToLocal Direction = "REMOTE_TO_LOCAL"
	Bidirectional Direction = "BIDIRECTIONAL"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case LocalToRemote, RemoteToLocal, Bidirectional:
		return d, nil
	}
	return "", NewValidationError("sync_direction", s,
		fmt.Sprintf("must be one of %s, %s, %s", LocalToRemote, RemoteToLocal, Bidirectional))
}

func (d Direction) PushesRemote() bool { return d == LocalToRemote || d == Bidirectional }
func (d Direction) PushesLocal() bool  { return d == RemoteToLocal || d == Bidirectional }

// Resolution is the policy used to pick one record per conflicting SKU.
type Resolution string

const (
	LocalWins       Resolution = "LOCAL_WINS"
	RemoteWins      Resolution = "REMOTE_WINS"
	LatestTimestamp Resolution = "LATEST_TIMESTAMP"
	ManualReview    Resolution = "MANUAL_REVIEW"
)

func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToUpper(strings.TrimSpace(s))); r {
	case LocalWins, RemoteWins, LatestTimestamp, ManualReview:
		return r, nil
	}
	return "", NewValidationError("conflict_resolution", s,
		fmt.Sprintf("must be one of %s, %s, %s, %s", LocalWins, RemoteWins, LatestTimestamp, ManualReview))
}

// Decision is an operator's answer to a queued conflict.
type Decision string

const (
	UseLocal  Decision = "use_local"
	UseRemote Decision = "use_remote"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case UseLocal, UseRemote:
		return d, nil
	}
	return "", NewValidationError("decision", s, "must be use_local or use_remote")
}
