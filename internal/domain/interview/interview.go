package interview

import (
	"math"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/domain/profile"
)

// Interview is a recorded conversation with a candidate, keyed by the
// conversation id assigned by the interviewing agent.
type Interview struct {
	profile.Base
	ConversationID string     `gorm:"column:conversation_id;not null;uniqueIndex" json:"conversation_id"`
	UserProfileID  *uuid.UUID `gorm:"type:uuid;column:user_profile_id;index" json:"user_profile_id,omitempty"`
	Status         string     `gorm:"column:status" json:"status"`
}

func (Interview) TableName() string { return "interview" }

// Score holds the 0-100 transcript scores for an interview, one row per interview.
type Score struct {
	profile.Base
	InterviewID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"interview_id"`
	Technical      int       `gorm:"column:technical;not null" json:"technical"`
	Communication  int       `gorm:"column:communication;not null" json:"communication"`
	ProblemSolving int       `gorm:"column:problem_solving;not null" json:"problem_solving"`
	English        int       `gorm:"column:english;not null" json:"english"`
	Average        float64   `gorm:"column:average;not null" json:"average"`
}

func (Score) TableName() string { return "interview_score" }

// Average returns the mean of the four scores rounded to two decimals.
func Average(technical, communication, problemSolving, english int) float64 {
	avg := float64(technical+communication+problemSolving+english) / 4
	return math.Round(avg*100) / 100
}
