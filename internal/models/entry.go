package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Entry представляет одну запись канала в хранилище.
// Поля Source* и Enclosure* необязательны и попадают в ленту, только если заполнены.
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Channel         string    `json:"channel"`
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	Description     string    `json:"description"`
	Author          string    `json:"author,omitempty"`
	Category        string    `json:"category,omitempty"`
	Comments        string    `json:"comments,omitempty"`
	GUID            string    `json:"guid,omitempty"`
	Published       time.Time `json:"published"`
	SourceURL       string    `json:"source_url,omitempty"`
	SourceName      string    `json:"source_name,omitempty"`
	EnclosureURL    string    `json:"enclosure_url,omitempty"`
	EnclosureLength int64     `json:"enclosure_length,omitempty"`
	EnclosureType   string    `json:"enclosure_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

var (
	ErrNoChannel = errors.New("entry channel is required")
	ErrNoContent = errors.New("entry needs a title or a description")
)

// Validate проверяет, что запись привязана к каналу и содержит заголовок или описание.
func (e *Entry) Validate() error {
	if e.Channel == "" {
		return ErrNoChannel
	}
	if e.Title == "" && e.Description == "" {
		return ErrNoContent
	}
	if e.EnclosureLength < 0 {
		return errors.New("enclosure length must not be negative")
	}
	return nil
}

// Prepare заполняет ID и даты, если они не заданы.
func (e *Entry) Prepare(now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if e.Published.IsZero() {
		e.Published = e.CreatedAt
	}
}
