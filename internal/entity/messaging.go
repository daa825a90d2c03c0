package entity

// MessageType enumerates message payload kinds.
type MessageType string

const (
	MessageText            MessageType = "text"
	MessageImage           MessageType = "image"
	MessageTravelCardShare MessageType = "travel_card_share"
	MessageLocation        MessageType = "location"
)

// Conversation holds the denormalized envelope of its most recent message so
// the conversation list renders without touching the messages table.
type Conversation struct {
	ID                  string     `gorm:"column:id;primaryKey;size:190;not null"`
	ParticipantIDs      StringList `gorm:"column:participant_ids;type:text;not null"`
	LastMessage         string     `gorm:"column:last_message;type:text"`
	LastMessageTimeMs   int64      `gorm:"column:last_message_time_ms;not null;index"`
	LastMessageSenderID string     `gorm:"column:last_message_sender_id;size:190"`
	IsRead              bool       `gorm:"column:is_read;not null;default:true"`
	CreatedAtMs         int64      `gorm:"column:created_at_ms;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single entry in a conversation. TravelCardID cross-references a
// shared card for travel_card_share messages.
type Message struct {
	ID             string      `gorm:"column:id;primaryKey;size:190;not null"`
	ConversationID string      `gorm:"column:conversation_id;size:190;not null;index"`
	SenderID       string      `gorm:"column:sender_id;size:190;not null"`
	Content        string      `gorm:"column:content;type:text;not null"`
	MessageType    MessageType `gorm:"column:message_type;size:32;not null;default:text"`
	TimestampMs    int64       `gorm:"column:timestamp_ms;not null;index"`
	IsRead         bool        `gorm:"column:is_read;not null;default:false"`
	ImageURL       string      `gorm:"column:image_url;size:512"`
	TravelCardID   string      `gorm:"column:travel_card_id;size:190"`
}

// TableName provides the explicit table binding for GORM.
func (Message) TableName() string {
	return "messages"
}
