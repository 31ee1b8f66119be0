package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示 CMS 后台管理员账号。
type User struct {
	gorm.Model
	Username           string `gorm:"uniqueIndex;size:64"`
	PasswordHash       string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// StudentPortfolio 是学员作品集，按 slug 公开访问。
//
// ThemeConfig 形如 {"theme": "tech_dark", "skill_layout": "bar"}，skill_layout 只对旧版扁平技能数据生效。
// AccessPassword 为明文，由展示层比对。
type StudentPortfolio struct {
	gorm.Model
	Slug           string         `gorm:"uniqueIndex;size:128"`
	StudentName    string         `gorm:"size:128"`
	StudentTitle   string         `gorm:"size:255"`
	SummaryBio     string         `gorm:"type:text"`
	HeroImageURL   string         `gorm:"size:512"`
	AvatarURL      string         `gorm:"size:512"`
	AccessPassword string         `gorm:"size:128"`
	ThemeConfig    datatypes.JSON `gorm:"type:jsonb"`
	ContentBlocks  datatypes.JSON `gorm:"type:jsonb"`
	Skills         datatypes.JSON `gorm:"type:jsonb"`
	SnapshotKey    string         `gorm:"size:512"`
	SnapshotStatus string         `gorm:"size:32"`
}

// ContentRow 是官网各内容栏目（课程、作品展示、理念、公益项目、页面区块）共用的行结构，
// 每个栏目一张表，表名见 content.Category。
type ContentRow struct {
	gorm.Model
	Title     string         `gorm:"size:255"`
	Subtitle  string         `gorm:"size:255"`
	Body      string         `gorm:"type:text"`
	ImageURL  string         `gorm:"size:512"`
	LinkURL   string         `gorm:"size:512"`
	Tags      datatypes.JSON `gorm:"type:jsonb"`
	Extra     datatypes.JSON `gorm:"type:jsonb"`
	SortOrder int            `gorm:"index"`
	Published bool           `gorm:"index;default:false"`
}

// Booking 是官网提交的试听预约。
type Booking struct {
	gorm.Model
	ParentName     string `gorm:"size:128"`
	Phone          string `gorm:"size:32"`
	Email          string `gorm:"size:255"`
	ChildAge       int
	CourseInterest string `gorm:"size:255"`
	Message        string `gorm:"type:text"`
	Status         string `gorm:"size:32;index"`
}
