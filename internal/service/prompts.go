package service

import (
	"fmt"
	"strings"

	"learning_companion_backend/internal/model"
)

const planSystemPrompt = `You are an expert educational content creator and industry professional with deep expertise in technical subjects. Create comprehensive, detailed learning content that meets professional and academic standards. Write detailed explanations of 700-800 words for each subtopic. Always return valid JSON without any markdown formatting or additional text.`

func buildPlanPrompt(topic string, days int, level model.Level, dailyTime string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create a comprehensive %d-day learning plan for %q at %s level with %s daily study time.\n", days, topic, level, dailyTime))
	b.WriteString(`
CRITICAL REQUIREMENTS FOR EXPLANATIONS:
- Each subtopic explanation must be 700-800 words minimum
- Write detailed, comprehensive explanations that cover:
  * Theoretical foundations and core concepts
  * Practical applications and real-world examples
  * Step-by-step processes where applicable
  * Industry best practices and standards
  * Common challenges and how to overcome them
  * Connections to related concepts and broader field knowledge
- Use professional, educational language appropriate for the specified level
- Include specific examples, case studies, or scenarios
- Explain both the "what" and "why" behind each concept
- Make content progressively more complex across days

Return a JSON object with this exact structure:
`)
	b.WriteString(fmt.Sprintf(`{
  "topic": %q,
  "totalDays": %d,
  "level": %q,
  "dailyTime": %q,
`, topic, days, level, dailyTime))
	b.WriteString(`  "days": [
    {
      "day": 1,
      "title": "Day title",
      "subtopics": [
        {
          "id": "unique-id",
          "title": "Subtopic title",
          "explanation": "Write 700-800 words covering theoretical foundations, practical applications, real-world examples, step-by-step processes, industry standards, common challenges, and connections to broader concepts. Include specific examples and detailed explanations of core principles.",
          "keyPoints": ["detailed technical point 1", "detailed technical point 2", "detailed technical point 3", "detailed technical point 4", "detailed technical point 5"],
          "estimatedTime": "30 minutes"
        }
      ],
      "objectives": ["specific measurable objective 1", "specific measurable objective 2"]
    }
  ]
}

CONTENT QUALITY STANDARDS:
- Explanations should be comprehensive and detailed (700-800 words each)
- Include technical depth appropriate for the specified level
- Provide context and background for each concept
- Connect concepts to broader field knowledge and industry practices
- Make content progressively more complex across days
- Ensure each day builds logically on previous knowledge
- Include practical examples, case studies, and real-world applications
- Explain implementation details and best practices

Make sure:
- Each day has 2-3 subtopics based on daily time available (fewer subtopics = more detailed content)
- Content progresses logically from fundamentals to advanced topics
- Include comprehensive practical examples and real-world applications
- Tailor complexity and depth to the specified level
- Each explanation is substantial and educational (700-800 words minimum)`)

	return b.String()
}

const quizSystemPrompt = `You are an expert quiz creator. Always return valid JSON without any markdown formatting or additional text.`

func buildQuizPrompt(topic string, day model.DayPlan, level model.Level) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Generate 5 quiz questions for Day %d of learning %q at %s level.\n\n", day.Day, topic, level))
	b.WriteString("Day content:\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", day.Title))
	b.WriteString(fmt.Sprintf("Subtopics: %s\n", strings.Join(day.SubtopicTitles(), ", ")))
	b.WriteString(`
Return a JSON object with a "questions" array containing this exact structure:
{
  "questions": [
    {
      "id": "q1",
      "type": "mcq",
      "question": "Question text",
      "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
      "correctAnswer": "A",
      "points": 2
    },
    {
      "id": "q2",
      "type": "theory",
      "question": "Theory question requiring explanation",
      "points": 4
    }
  ]
}

Requirements:
- 3 MCQ questions (2 points each)
- 2 theory questions (4 points each)
- Questions should test understanding, not just memorization
- MCQ options should be plausible but clearly distinguishable
- Theory questions should require 2-3 sentence explanations`)

	return b.String()
}

const gradeSystemPrompt = `You are an expert educator providing fair and constructive assessment. Always return valid JSON.`

func buildGradePrompt(question, answer, context string) string {
	var b strings.Builder

	b.WriteString("Grade this theory answer and provide feedback.\n\n")
	b.WriteString(fmt.Sprintf("Question: %s\n", question))
	b.WriteString(fmt.Sprintf("Context: %s\n", context))
	b.WriteString(fmt.Sprintf("Student Answer: %s\n", answer))
	b.WriteString(`
Evaluate the answer and return a JSON object with this structure:
{
  "score": 7,
  "feedback": "Detailed feedback explaining what was good and what could be improved",
  "idealAnswer": "A comprehensive ideal answer"
}

Scoring criteria (out of 10):
- Accuracy and correctness (40%)
- Completeness and depth (30%)
- Clarity and organization (20%)
- Use of relevant examples (10%)

Be constructive and encouraging in feedback.`)

	return b.String()
}

const tutorSystemPrompt = `You are a patient, knowledgeable AI tutor with expertise in technical subjects. Provide clear, well-formatted explanations using proper markdown formatting. Always structure your responses professionally with appropriate formatting for code, mathematics, and technical content. Write comprehensive responses of 400-600 words.`

func buildTutorPrompt(question, context, topic string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are an AI tutor helping a student learn %q.\n\n", topic))
	b.WriteString(fmt.Sprintf("Current lesson context: %s\n\n", context))
	b.WriteString(fmt.Sprintf("Student question: %s\n", question))
	b.WriteString(`
FORMATTING REQUIREMENTS:
- Use proper markdown formatting for your response
- Use code blocks (` + "```" + `) for any code examples
- Use inline code (` + "`" + `) for technical terms, functions, or short code snippets
- Use mathematical notation with LaTeX-style formatting when needed (e.g., $x^2 + y^2 = z^2$)
- Use bullet points and numbered lists for clarity
- Use headers (##, ###) to organize complex explanations
- Use **bold** for important concepts and *italics* for emphasis
- Use blockquotes (>) for important notes or warnings
- Include practical examples in properly formatted code blocks
- Structure your response with clear sections when explaining complex topics

CONTENT REQUIREMENTS:
- Provide comprehensive, detailed explanations (aim for 400-600 words)
- Include step-by-step breakdowns when applicable
- Give practical examples and real-world applications
- Explain both the "what" and "why" behind concepts
- Connect the answer to broader concepts in the field
- Include best practices and common pitfalls
- Suggest further learning resources when relevant
- Use industry-standard terminology and practices

Provide a helpful, clear, and encouraging response that follows professional educational standards.`)

	return b.String()
}
