package model

// 使用者資料由 user 模組維護，此處唯讀
type User struct {
	UserID  string `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	Name    string `gorm:"type:varchar(100)" json:"name"`
	Email   string `gorm:"unique;not null;type:varchar(255)" json:"email"`
	Phone   string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	IsAdmin bool   `gorm:"not null;default:false" json:"is_admin"`
	Avatar  string `gorm:"type:text" json:"avatar,omitempty"`
	BaseModel
}
