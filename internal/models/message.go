package models

import "time"

// ContentDecrypter turns stored ciphertext back into text. Implementations
// never fail; undecryptable input yields a placeholder.
type ContentDecrypter interface {
	Decrypt(token string) string
}

// Message is a direct message. Content holds ciphertext and is never
// serialised; callers read it through Plaintext.
type Message struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	SenderID   string    `json:"sender_id" gorm:"not null;size:36;index:idx_message_pair,priority:1"`
	ReceiverID string    `json:"receiver_id" gorm:"not null;size:36;index:idx_message_pair,priority:2;index:idx_message_receiver_read,priority:1"`
	Content    string    `json:"-" gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false;index:idx_message_receiver_read,priority:2"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}

// Plaintext decrypts the stored content.
func (m *Message) Plaintext(dec ContentDecrypter) string {
	return dec.Decrypt(m.Content)
}
