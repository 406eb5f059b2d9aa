package models

import "time"

// Session is one candidate's run through the fixed six-question interview.
type Session struct {
	SessionID    string        `json:"sessionId"`
	CandidateID  string        `json:"candidateId"`
	Questions    []Question    `json:"questions"`
	CurrentIndex int           `json:"currentIndex"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	PausedAt     *time.Time    `json:"pausedAt,omitempty"`
}

// ActiveQuestion returns the question at the current index, or nil when the
// session holds no questions.
func (s *Session) ActiveQuestion() *Question {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

func (s Session) Finished() bool { return s.Status == StatusFinished }

func (s Session) Clone() Session {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.Clone()
	}
	if s.PausedAt != nil {
		t := *s.PausedAt
		out.PausedAt = &t
	}
	return out
}
