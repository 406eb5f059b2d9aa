package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate is the durable record of one interviewee and, once finished,
// their frozen interview result.
type Candidate struct {
	ID             string                        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string                        `gorm:"not null;default:''" json:"name"`
	Email          string                        `gorm:"index" json:"email"`
	Phone          string                        `json:"phone"`
	Position       string                        `json:"position"`
	ResumeFilename string                        `json:"resumeFilename,omitempty"`
	ResumeSize     int64                         `json:"resumeSize,omitempty"`
	ResumeText     string                        `gorm:"type:text" json:"-"`
	SessionID      string                        `gorm:"index" json:"sessionId,omitempty"`
	FinalScore     *int                          `json:"finalScore"`
	Summary        string                        `gorm:"type:text" json:"summary"`
	Status         CandidateStatus               `gorm:"not null;index" json:"status"`
	Questions      datatypes.JSONSlice[Question] `json:"questions"`
	CreatedAt      time.Time                     `json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
	CompletedAt    *time.Time                    `json:"completedAt,omitempty"`
	Exported       bool                          `gorm:"not null;default:false;index" json:"-"`
	ExportedAt     *time.Time                    `json:"-"`
}

// InterviewExport is one line of the completed-interview JSONL export.
type InterviewExport struct {
	CandidateID string     `json:"candidateId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Position    string     `json:"position,omitempty"`
	FinalScore  int        `json:"finalScore"`
	Summary     string     `json:"summary"`
	Questions   []Question `json:"questions"`
	CompletedAt time.Time  `json:"completedAt"`
}

func (c *Candidate) ToExport() InterviewExport {
	out := InterviewExport{
		CandidateID: c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Position:    c.Position,
		Summary:     c.Summary,
		Questions:   []Question(c.Questions),
	}
	if c.FinalScore != nil {
		out.FinalScore = *c.FinalScore
	}
	if c.CompletedAt != nil {
		out.CompletedAt = *c.CompletedAt
	}
	return out
}
