package entity

// ActivityCategory classifies a planned activity.
type ActivityCategory string

const (
	CategoryGeneral        ActivityCategory = "general"
	CategorySightseeing    ActivityCategory = "sightseeing"
	CategoryFood           ActivityCategory = "food"
	CategoryAccommodation  ActivityCategory = "accommodation"
	CategoryTransportation ActivityCategory = "transportation"
	CategoryShopping       ActivityCategory = "shopping"
	CategoryEntertainment  ActivityCategory = "entertainment"
	CategoryOutdoor        ActivityCategory = "outdoor"
	CategoryCultural       ActivityCategory = "cultural"
)

// Activity is a scheduled item on a user's itinerary. DateMs is the activity's
// own calendar date, distinct from the row's creation time.
type Activity struct {
	ID          string           `gorm:"column:id;primaryKey;size:190;not null"`
	UserID      string           `gorm:"column:user_id;size:190;not null;index"`
	Title       string           `gorm:"column:title;size:320;not null"`
	Location    string           `gorm:"column:location;size:320;not null"`
	Notes       string           `gorm:"column:notes;type:text"`
	DateMs      int64            `gorm:"column:date_ms;not null;index"`
	CreatedAtMs int64            `gorm:"column:created_at_ms;not null"`
	UpdatedAtMs int64            `gorm:"column:updated_at_ms;not null"`
	IsCompleted bool             `gorm:"column:is_completed;not null;default:false"`
	Category    ActivityCategory `gorm:"column:category;size:32;not null;default:general"`
	ImageURLs   StringList       `gorm:"column:image_urls;type:text"`
	Latitude    *float64         `gorm:"column:latitude"`
	Longitude   *float64         `gorm:"column:longitude"`
}

// TableName provides the explicit table binding for GORM.
func (Activity) TableName() string {
	return "activities"
}
