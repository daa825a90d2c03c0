package entity

// Comment belongs to a travel card. The author's display name and image are
// snapshots taken at write time and do not follow later profile edits.
type Comment struct {
	ID               string `gorm:"column:id;primaryKey;size:190;not null"`
	TravelCardID     string `gorm:"column:travel_card_id;size:190;not null;index"`
	UserID           string `gorm:"column:user_id;size:190;not null"`
	UserDisplayName  string `gorm:"column:user_display_name;size:320;not null"`
	UserProfileImage string `gorm:"column:user_profile_image;size:512"`
	Content          string `gorm:"column:content;type:text;not null"`
	CreatedAtMs      int64  `gorm:"column:created_at_ms;not null"`
	UpdatedAtMs      int64  `gorm:"column:updated_at_ms;not null"`
	LikesCount       int    `gorm:"column:likes_count;not null;default:0"`
	IsEdited         bool   `gorm:"column:is_edited;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}
