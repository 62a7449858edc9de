package profile

// File is the stored document a CV extraction was run against.
type File struct {
	Base
	Container          string  `gorm:"column:container;not null" json:"container"`
	FolderPath         string  `gorm:"column:folder_path" json:"folder_path"`
	FilePath           string  `gorm:"column:file_path;not null" json:"file_path"`
	Extension          string  `gorm:"column:extension" json:"extension"`
	MbSize             float64 `gorm:"column:mb_size" json:"mb_size"`
	StorageAccountName string  `gorm:"column:storage_account_name" json:"storage_account_name"`
}

func (File) TableName() string { return "file" }
