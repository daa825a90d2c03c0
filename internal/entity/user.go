package entity

// User is an account row. Email doubles as the login key, so at most one row
// may exist per email.
type User struct {
	ID               string `gorm:"column:id;primaryKey;size:190;not null"`
	Email            string `gorm:"column:email;size:320;not null;uniqueIndex"`
	DisplayName      string `gorm:"column:display_name;size:320;not null"`
	ProfileImageURL  string `gorm:"column:profile_image_url;size:512"`
	Bio              string `gorm:"column:bio;type:text"`
	FollowersCount   int    `gorm:"column:followers_count;not null;default:0"`
	FollowingCount   int    `gorm:"column:following_count;not null;default:0"`
	TravelCardsCount int    `gorm:"column:travel_cards_count;not null;default:0"`
	CreatedAtMs      int64  `gorm:"column:created_at_ms;not null"`
	UpdatedAtMs      int64  `gorm:"column:updated_at_ms;not null"`
	IsVerified       bool   `gorm:"column:is_verified;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
