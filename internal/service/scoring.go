package service

import (
	"fmt"
	"math"

	"learning_companion_backend/internal/model"
)

// ScoreMCQ 选择题按选项字母精确匹配
func ScoreMCQ(q model.QuizQuestion, answer string) model.GradedAnswer {
	graded := model.GradedAnswer{
		QuestionID:    q.ID,
		UserAnswer:    answer,
		CorrectAnswer: q.CorrectAnswer,
		MaxScore:      q.Points,
	}
	if answer == q.CorrectAnswer {
		graded.Score = q.Points
		graded.Feedback = "Correct!"
	} else {
		graded.Feedback = fmt.Sprintf("Incorrect. The correct answer is %s", q.CorrectAnswer)
	}
	return graded
}

// TheoryPoints 把 0-10 分换算为题目分值
func TheoryPoints(score, maxPoints int) int {
	return int(math.Round(float64(score) / 10 * float64(maxPoints)))
}

func ScoreTheory(q model.QuizQuestion, answer string, grade Grade) model.GradedAnswer {
	return model.GradedAnswer{
		QuestionID:  q.ID,
		UserAnswer:  answer,
		Score:       TheoryPoints(grade.Score, q.Points),
		MaxScore:    q.Points,
		Feedback:    grade.Feedback,
		IdealAnswer: grade.IdealAnswer,
	}
}

func PossiblePoints(questions []model.QuizQuestion) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

func TotalScore(answers []model.GradedAnswer) int {
	total := 0
	for _, a := range answers {
		total += a.Score
	}
	return total
}

// Percentage 得分占总分的百分比，四舍五入
func Percentage(score, possible int) int {
	if possible <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(possible) * 100))
}
