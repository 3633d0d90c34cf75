package entities

import (
	"fmt"
	"time"
)

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

func ToApplicationStatus(s string) (ApplicationStatus, error) {
	switch s {
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusReviewed):
		return StatusReviewed, nil
	case string(StatusAccepted):
		return StatusAccepted, nil
	case string(StatusRejected):
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("invalid application status: %v", s)
	}
}

type Application struct {
	ID          string            `gorm:"primaryKey" json:"id"`
	JobID       string            `gorm:"not null" json:"jobId"`
	CandidateID string            `gorm:"not null;index" json:"candidateId"`
	Status      ApplicationStatus `gorm:"not null;default:pending" json:"status"`
	MatchScore  int               `gorm:"not null;default:0" json:"matchScore"`
	ScoredAt    *time.Time        `json:"scoredAt"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func NewApplication(id, jobID, candidateID string) Application {
	return Application{
		ID:          id,
		JobID:       jobID,
		CandidateID: candidateID,
		Status:      StatusPending,
		MatchScore:  0,
	}
}

// Score reports the stored score, absent until background scoring has succeeded.
func (a Application) Score() MatchScore {
	if a.ScoredAt == nil {
		return NoScore()
	}
	return Score(a.MatchScore)
}

type ApplicationFilter struct {
	JobIDs   []string
	Status   ApplicationStatus
	MinScore int
	Limit    int
}
