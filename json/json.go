// Package json persists tutor sessions as versioned JSON documents.
package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/tutor"
)

const envelopeVersion = 1

// envelope is the v1 wire format for a persisted session.
type envelope struct {
	Version       int           `json:"version"`
	ID            string        `json:"id"`
	Department    string        `json:"department,omitempty"`
	QuestionCount int           `json:"question_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Documents     []documentDTO `json:"documents"`
	Entries       []entryDTO    `json:"entries"`
}

// entryDTO is the JSON representation of a ChatEntry with a role discriminator.
type entryDTO struct {
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type documentDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URI        string    `json:"uri,omitempty"`
	MIMEType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s tutor.Session) ([]byte, error) {
	env := envelope{
		Version:       envelopeVersion,
		ID:            s.ID,
		Department:    s.Department,
		QuestionCount: s.QuestionCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Documents:     make([]documentDTO, len(s.Documents)),
		Entries:       make([]entryDTO, len(s.Entries)),
	}
	for i, d := range s.Documents {
		env.Documents[i] = documentDTO(d)
	}
	for i, e := range s.Entries {
		dto, err := marshalEntry(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		env.Entries[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (tutor.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return tutor.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return tutor.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	s := tutor.Session{
		ID:            env.ID,
		Department:    env.Department,
		QuestionCount: env.QuestionCount,
		CreatedAt:     env.CreatedAt,
		UpdatedAt:     env.UpdatedAt,
	}
	for _, d := range env.Documents {
		s.Documents = append(s.Documents, tutor.UploadedDocument(d))
	}
	for i, dto := range env.Entries {
		e, err := unmarshalEntry(dto)
		if err != nil {
			return tutor.Session{}, fmt.Errorf("entry %d: %w", i, err)
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

func marshalEntry(e tutor.ChatEntry) (entryDTO, error) {
	switch e.Role {
	case tutor.RoleUser, tutor.RoleAssistant:
	default:
		return entryDTO{}, fmt.Errorf("unknown role: %q", e.Role)
	}
	return entryDTO{
		Role:        string(e.Role),
		Text:        e.Text,
		Interrupted: e.Interrupted,
		Timestamp:   e.Timestamp,
	}, nil
}

func unmarshalEntry(dto entryDTO) (tutor.ChatEntry, error) {
	role := tutor.Role(dto.Role)
	switch role {
	case tutor.RoleUser, tutor.RoleAssistant:
	default:
		return tutor.ChatEntry{}, fmt.Errorf("unknown role: %q", dto.Role)
	}
	return tutor.ChatEntry{
		Role:        role,
		Text:        dto.Text,
		Interrupted: dto.Interrupted,
		Timestamp:   dto.Timestamp,
	}, nil
}
