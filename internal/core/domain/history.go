package domain

import "time"

// ChatHistoryEntry records one question/answer exchange.
type ChatHistoryEntry struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when the exchange completed.
	Timestamp time.Time `json:"timestamp"`

	// Question is the user question, or the glossary request description.
	Question string `json:"question"`

	// Answer is the answer text with HTML removed.
	Answer string `json:"answer"`

	// Citekeys are the documents the answer drew on.
	Citekeys []Citekey `json:"citekeys"`
}
