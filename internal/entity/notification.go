package entity

// NotificationType enumerates the actions that fan out a notification.
type NotificationType string

const (
	NotificationLike            NotificationType = "like"
	NotificationComment         NotificationType = "comment"
	NotificationFollow          NotificationType = "follow"
	NotificationMention         NotificationType = "mention"
	NotificationTravelCardShare NotificationType = "travel_card_shared"
)

// Notification is addressed to UserID and attributed to FromUserID.
type Notification struct {
	ID                string           `gorm:"column:id;primaryKey;size:190;not null"`
	UserID            string           `gorm:"column:user_id;size:190;not null;index"`
	FromUserID        string           `gorm:"column:from_user_id;size:190;not null"`
	Type              NotificationType `gorm:"column:type;size:32;not null"`
	Title             string           `gorm:"column:title;size:320;not null"`
	Message           string           `gorm:"column:message;type:text;not null"`
	RelatedEntityID   string           `gorm:"column:related_entity_id;size:190"`
	RelatedEntityType string           `gorm:"column:related_entity_type;size:64"`
	IsRead            bool             `gorm:"column:is_read;not null;default:false"`
	CreatedAtMs       int64            `gorm:"column:created_at_ms;not null;index"`
	ImageURL          string           `gorm:"column:image_url;size:512"`
}

// TableName provides the explicit table binding for GORM.
func (Notification) TableName() string {
	return "notifications"
}
