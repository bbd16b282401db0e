package model

import (
	"fmt"
	"strings"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return l, nil
	default:
		return "", fmt.Errorf("unknown level %q", s)
	}
}

// PlanData 是 LLM 生成的完整计划，原样存入 learning_plans.plan_data
type PlanData struct {
	Topic     string    `json:"topic"`
	TotalDays int       `json:"totalDays"`
	Level     Level     `json:"level"`
	DailyTime string    `json:"dailyTime"`
	Days      []DayPlan `json:"days"`
}

type DayPlan struct {
	Day        int        `json:"day"`
	Title      string     `json:"title"`
	Subtopics  []Subtopic `json:"subtopics"`
	Objectives []string   `json:"objectives"`
}

type Subtopic struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Explanation   string   `json:"explanation"`
	KeyPoints     []string `json:"keyPoints"`
	EstimatedTime string   `json:"estimatedTime"`
}

// Day 按 1 起始的序号取某一天
func (p *PlanData) Day(n int) (*DayPlan, bool) {
	if n < 1 || n > len(p.Days) {
		return nil, false
	}
	return &p.Days[n-1], true
}

func (d *DayPlan) Subtopic(id string) (*Subtopic, bool) {
	for i := range d.Subtopics {
		if d.Subtopics[i].ID == id {
			return &d.Subtopics[i], true
		}
	}
	return nil, false
}

func (d *DayPlan) SubtopicTitles() []string {
	titles := make([]string, len(d.Subtopics))
	for i, s := range d.Subtopics {
		titles[i] = s.Title
	}
	return titles
}
