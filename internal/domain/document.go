package domain

import "time"

// Document is an uploaded source document with its extracted text.
type Document struct {
	ID        string
	Filename  string
	Title     string
	Content   string
	CreatedAt time.Time
}
