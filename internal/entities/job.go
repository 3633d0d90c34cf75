package entities

import (
	"github.com/PuerkitoBio/goquery"
	"strings"
	"time"
)

type Job struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Company      string    `gorm:"not null" json:"company"`
	Role         string    `gorm:"not null" json:"role"`
	Description  string    `gorm:"not null" json:"description"`
	Salary       string    `gorm:"not null" json:"salary"`
	Requirements string    `json:"requirements"`
	PostedBy     string    `gorm:"index" json:"postedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// JobDescriptor is the part of a job the scoring service looks at.
type JobDescriptor struct {
	JobID        string
	Role         string
	Description  string
	Requirements string
}

func DescriptorOf(job Job) JobDescriptor {
	return JobDescriptor{
		JobID:        job.ID,
		Role:         strings.TrimSpace(job.Role),
		Description:  PlainText(job.Description),
		Requirements: PlainText(job.Requirements),
	}
}

// PlainText strips markup from job texts that were posted as HTML.
func PlainText(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return strings.TrimSpace(text)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return strings.TrimSpace(text)
	}

	doc.Find("br, p, li, div, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
