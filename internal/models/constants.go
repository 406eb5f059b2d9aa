package models

// Difficulty of a single interview question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// number of questions in every interview, split evenly across difficulties
const (
	QuestionsPerSession     = 6
	QuestionsPerDifficulty  = 2
	MaxQuestionScore        = 10.0
	DefaultTimeLimitSeconds = 300
)

// contains all valid difficulties (in lowercase)
var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

func ValidDifficultiesList() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

func (d Difficulty) Valid() bool {
	return ValidDifficulties[d]
}

// TimeLimitSeconds returns the answering window for a question of this difficulty.
func (d Difficulty) TimeLimitSeconds() int {
	switch d {
	case DifficultyEasy:
		return 300
	case DifficultyMedium:
		return 600
	case DifficultyHard:
		return 900
	default:
		return DefaultTimeLimitSeconds
	}
}

// Weight is the multiplier applied to a question score in the final aggregate.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in-progress"
	StatusPaused     SessionStatus = "paused"
	StatusFinished   SessionStatus = "finished"
)

// CandidateStatus is the lifecycle state of a candidate record.
type CandidateStatus string

const (
	CandidatePending    CandidateStatus = "pending"
	CandidateInProgress CandidateStatus = "in-progress"
	CandidateCompleted  CandidateStatus = "completed"
)
