package profile

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserProfile is the subject of a CV extraction. It is created elsewhere;
// Email and ResumeURL are owned by the account service.
type UserProfile struct {
	Base
	Name               *string                     `gorm:"column:name" json:"name,omitempty"`
	Email              string                      `gorm:"column:email;index" json:"email"`
	PhoneNumber        *string                     `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Age                *int                        `gorm:"column:age" json:"age,omitempty"`
	Nationality        *string                     `gorm:"column:nationality" json:"nationality,omitempty"`
	ProfilePictureURL  *string                     `gorm:"column:profile_picture_url" json:"profile_picture_url,omitempty"`
	ResumeURL          *string                     `gorm:"column:resume_url" json:"resume_url,omitempty"`
	Bio                *string                     `gorm:"column:bio;type:text" json:"bio,omitempty"`
	OpenToRelocation   *bool                       `gorm:"column:open_to_relocation" json:"open_to_relocation,omitempty"`
	JobTypePreferences datatypes.JSONSlice[string] `gorm:"column:job_type_preferences" json:"job_type_preferences"`
	RemotePreferences  datatypes.JSONSlice[string] `gorm:"column:remote_preferences" json:"remote_preferences"`
	Roles              datatypes.JSONSlice[string] `gorm:"column:roles" json:"roles"`
}

func (UserProfile) TableName() string { return "user_profile" }

// Candidate is the 1:1 hiring-side view of a profile.
type Candidate struct {
	Base
	UserProfileID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_profile_id"`
	CvFileID      *uuid.UUID `gorm:"type:uuid;column:cv_file_id" json:"cv_file_id,omitempty"`
}

func (Candidate) TableName() string { return "candidate" }
