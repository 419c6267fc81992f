package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatTurn is the append-only audit record of one answered question.
// Created exactly once per answer, never mutated.
type ChatTurn struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID         string             `bson:"session_id" json:"session_id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	ClassID           string             `bson:"class_id" json:"class_id"`
	Subject           string             `bson:"subject" json:"subject"`
	UserMessage       string             `bson:"user_message" json:"user_message"`
	AIResponse        string             `bson:"ai_response" json:"ai_response"`
	SourceResourceIDs []string           `bson:"source_resource_ids" json:"source_resource_ids"`
	IsVoiceInput      bool               `bson:"is_voice_input" json:"is_voice_input"`
	IsVoiceOutput     bool               `bson:"is_voice_output" json:"is_voice_output"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// AskRequest is a student question scoped to one class and subject.
type AskRequest struct {
	Message       string `json:"message" binding:"required,min=1,max=2000"`
	ClassID       string `json:"class_id" binding:"required"`
	Subject       string `json:"subject" binding:"required"`
	SessionID     string `json:"session_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	IsVoiceInput  bool   `json:"is_voice_input,omitempty"`
	IsVoiceOutput bool   `json:"is_voice_output,omitempty"`
}

// SourceRef is one deduplicated citation shown to the student.
type SourceRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AskResponse carries the grounded answer and its citations.
type AskResponse struct {
	Response  string      `json:"response"`
	Sources   []SourceRef `json:"sources"`
	SessionID string      `json:"session_id"`
}
