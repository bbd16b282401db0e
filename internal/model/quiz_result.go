package model

import "time"

type QuestionType string

const (
	QuestionMCQ    QuestionType = "mcq"
	QuestionTheory QuestionType = "theory"
)

type QuizQuestion struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Points        int          `json:"points"`
}

type GradedAnswer struct {
	QuestionID    string `json:"questionId"`
	UserAnswer    string `json:"userAnswer"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"maxScore"`
	Feedback      string `json:"feedback"`
	IdealAnswer   string `json:"idealAnswer,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// QuizResult 只插入不更新，读取时取最新一条
type QuizResult struct {
	UUIDBase
	UserID         string         `gorm:"type:varchar(36);not null;index:idx_quiz_results_key" json:"user_id"`
	PlanID         string         `gorm:"type:varchar(36);not null;index:idx_quiz_results_key" json:"plan_id"`
	DayNumber      int            `gorm:"not null;index:idx_quiz_results_key" json:"day_number"`
	Questions      []QuizQuestion `gorm:"serializer:json;type:text" json:"questions"`
	Answers        []GradedAnswer `gorm:"serializer:json;type:text" json:"answers"`
	Score          int            `gorm:"not null" json:"score"`
	TotalQuestions int            `gorm:"not null" json:"total_questions"`
	CompletedAt    time.Time      `json:"completed_at"`
}

func (QuizResult) TableName() string { return "quiz_results" }
