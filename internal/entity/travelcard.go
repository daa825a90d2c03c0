package entity

// TravelCard is a journal entry owned by a user. IsSynced is kept for forward
// schema compatibility; in local-only mode the repository forces it to true on
// every write.
type TravelCard struct {
	ID            string     `gorm:"column:id;primaryKey;size:190;not null"`
	UserID        string     `gorm:"column:user_id;size:190;not null;index"`
	Title         string     `gorm:"column:title;size:320"`
	Description   string     `gorm:"column:description;type:text;not null"`
	Location      string     `gorm:"column:location;size:320;not null"`
	Latitude      *float64   `gorm:"column:latitude"`
	Longitude     *float64   `gorm:"column:longitude"`
	ImageURLs     StringList `gorm:"column:image_urls;type:text"`
	Tags          StringList `gorm:"column:tags;type:text"`
	CreatedAtMs   int64      `gorm:"column:created_at_ms;not null"`
	UpdatedAtMs   int64      `gorm:"column:updated_at_ms;not null"`
	IsPublic      bool       `gorm:"column:is_public;not null;default:true"`
	LikesCount    int        `gorm:"column:likes_count;not null;default:0"`
	CommentsCount int        `gorm:"column:comments_count;not null;default:0"`
	IsSynced      bool       `gorm:"column:is_synced;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (TravelCard) TableName() string {
	return "travel_cards"
}
