package entity

// PublishedActivity is the feed-visible projection of an Activity. It carries
// no foreign key to users: the username and profile image are denormalized at
// publish time so the feed renders without a join. Profile membership is
// therefore recovered by string matching, not by key.
type PublishedActivity struct {
	ID                  string `gorm:"column:id;primaryKey;size:190;not null"`
	Username            string `gorm:"column:username;size:320;not null;index"`
	UserProfileImage    string `gorm:"column:user_profile_image;size:512"`
	Location            string `gorm:"column:location;size:320;not null"`
	Date                string `gorm:"column:date;size:64;not null"`
	Description         string `gorm:"column:description;type:text;not null"`
	ActivityTitle       string `gorm:"column:activity_title;size:320;not null"`
	ActivityDescription string `gorm:"column:activity_description;type:text;not null"`
	ActivityTime        string `gorm:"column:activity_time;size:64;not null"`
	HeroImage           string `gorm:"column:hero_image;size:512"`
	ActivityImage       string `gorm:"column:activity_image;size:512"`
	LikeCount           int    `gorm:"column:like_count;not null;default:0"`
	CommentCount        int    `gorm:"column:comment_count;not null;default:0"`
	ShareCount          int    `gorm:"column:share_count;not null;default:0"`
	IsLiked             bool   `gorm:"column:is_liked;not null;default:false"`
	IsBookmarked        bool   `gorm:"column:is_bookmarked;not null;default:false"`
	CreatedAtMs         int64  `gorm:"column:created_at_ms;not null;index"`
	UpdatedAtMs         int64  `gorm:"column:updated_at_ms;not null"`
}

// TableName provides the explicit table binding for GORM.
func (PublishedActivity) TableName() string {
	return "published_activities"
}

// FeedPost is the legacy feed projection, structurally parallel to
// PublishedActivity but keyed to its author by user id.
type FeedPost struct {
	ID               string `gorm:"column:id;primaryKey;size:190;not null"`
	UserID           string `gorm:"column:user_id;size:190;not null;index"`
	Username         string `gorm:"column:username;size:320;not null"`
	UserProfileImage string `gorm:"column:user_profile_image;size:512"`
	Location         string `gorm:"column:location;size:320;not null"`
	Description      string `gorm:"column:description;type:text;not null"`
	TimeRange        string `gorm:"column:time_range;size:64;not null"`
	ImageURL         string `gorm:"column:image_url;size:512"`
	LikeCount        int    `gorm:"column:like_count;not null;default:0"`
	CommentCount     int    `gorm:"column:comment_count;not null;default:0"`
	ShareCount       int    `gorm:"column:share_count;not null;default:0"`
	IsLiked          bool   `gorm:"column:is_liked;not null;default:false"`
	IsBookmarked     bool   `gorm:"column:is_bookmarked;not null;default:false"`
	CreatedAtMs      int64  `gorm:"column:created_at_ms;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (FeedPost) TableName() string {
	return "feed_posts"
}
