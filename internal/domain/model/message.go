package model

import "time"

// Sender tags who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry in a conversation log. The ID doubles as the
// ordering key: IDs allocated by the same log are strictly increasing.
// Fields are never mutated after creation; a correction is a new message.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
