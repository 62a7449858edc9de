package prompt

import (
	"time"

	"gorm.io/datatypes"
)

// Prompt is a versioned prompt template. (Name, Version) is unique; Category
// groups prompts that serve the same task.
type Prompt struct {
	Name      string                      `gorm:"column:name;primaryKey" json:"name" yaml:"name"`
	Version   int                         `gorm:"column:version;primaryKey" json:"version" yaml:"version"`
	Category  string                      `gorm:"column:category;index" json:"category" yaml:"category"`
	Content   string                      `gorm:"column:content;type:text" json:"content" yaml:"content"`
	Locale    string                      `gorm:"column:locale" json:"locale,omitempty" yaml:"locale,omitempty"`
	Tags      datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt time.Time                   `json:"created_at" yaml:"-"`
	UpdatedAt time.Time                   `json:"updated_at" yaml:"-"`
}

func (Prompt) TableName() string { return "prompt" }
