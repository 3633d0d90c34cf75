package entities

import "time"

type Profile struct {
	CandidateID string    `gorm:"primaryKey" json:"candidateId"`
	Skills      string    `json:"skills"`
	Experience  string    `json:"experience"`
	Education   string    `json:"education"`
	ResumeURL   string    `json:"resumeUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProfileFields struct {
	Skills     string
	Experience string
	Education  string
}
