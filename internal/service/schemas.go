package service

import "learning_companion_backend/pkg/llm"

// 只约束后续逻辑依赖的字段，模型多给的字段放行

var planSchema = &llm.Schema{
	Name:        "learning-plan",
	Description: "A multi-day learning plan with detailed subtopics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":     map[string]any{"type": "string"},
			"totalDays": map[string]any{"type": "integer", "minimum": 1},
			"level":     map[string]any{"type": "string"},
			"dailyTime": map[string]any{"type": "string"},
			"days": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day":   map[string]any{"type": "integer"},
						"title": map[string]any{"type": "string"},
						"subtopics": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":            map[string]any{"type": "string"},
									"title":         map[string]any{"type": "string"},
									"explanation":   map[string]any{"type": "string"},
									"keyPoints":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
									"estimatedTime": map[string]any{"type": "string"},
								},
								"required": []any{"title", "explanation"},
							},
						},
						"objectives": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required": []any{"title", "subtopics"},
				},
			},
		},
		"required": []any{"days"},
	},
}

var quizSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "Quiz questions for one day of a learning plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":            map[string]any{"type": "string"},
						"type":          map[string]any{"type": "string", "enum": []any{"mcq", "theory"}},
						"question":      map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctAnswer": map[string]any{"type": "string"},
						"points":        map[string]any{"type": "integer", "minimum": 0},
					},
					"required": []any{"id", "type", "question", "points"},
				},
			},
		},
	},
}

var gradeSchema = &llm.Schema{
	Name:        "theory-grade",
	Description: "A score out of 10 with feedback for a free-text answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":       map[string]any{"type": "number"},
			"feedback":    map[string]any{"type": "string"},
			"idealAnswer": map[string]any{"type": "string"},
		},
		"required": []any{"score", "feedback"},
	},
}
