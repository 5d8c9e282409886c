package core

import "time"

// Round is one finished play session, from ball reset to terminal event.
type Round struct {
	ID        string
	Ball      string
	Outcome   Outcome
	StartedAt time.Time
	EndedAt   time.Time
	FinalPose Pose
	Score     Score
}

// Duration of the round.
func (r Round) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
