package events

import "github.com/maxaizer/jobmatch/internal/entities"

var ApplicationScoredTopic = "ApplicationScoredEvent"

// ApplicationScored is published after a background scoring attempt. Score is absent
// when the attempt failed.
type ApplicationScored struct {
	ApplicationID string
	CandidateID   string
	JobID         string
	JobTitle      string
	Score         entities.MatchScore
}
