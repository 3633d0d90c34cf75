package events

var ProfileUpdatedTopic = "ProfileUpdatedEvent"

type ProfileUpdateReason string

const (
	ProfileEdited  ProfileUpdateReason = "profile_edited"
	ResumeUploaded ProfileUpdateReason = "resume_uploaded"
)

type ProfileUpdated struct {
	CandidateID string
	Reason      ProfileUpdateReason
}
