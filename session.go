package tutor

import (
	"fmt"
	"strings"
	"time"
)

// MaxQuestionLength is the longest question, in bytes, a session will send.
const MaxQuestionLength = 8000

// Session holds the client-side state of one study conversation: the
// department in focus, documents uploaded so far, and the transcript.
// It is owned by the UI controller; all mutation goes through its methods.
type Session struct {
	ID            string
	Department    string
	Documents     []UploadedDocument
	Entries       []ChatEntry
	QuestionCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession creates an empty session with the given ID.
func NewSession(id string, now time.Time) Session {
	return Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// SetDepartment changes the department sent with subsequent questions.
func (s *Session) SetDepartment(dept string) {
	s.Department = strings.TrimSpace(dept)
	s.touch()
}

// AddDocument records an uploaded document. A document with an ID already
// present replaces the earlier record.
func (s *Session) AddDocument(doc UploadedDocument) {
	for i, d := range s.Documents {
		if d.ID == doc.ID {
			s.Documents[i] = doc
			s.touch()
			return
		}
	}
	s.Documents = append(s.Documents, doc)
	s.touch()
}

// Document returns the uploaded document with the given ID.
func (s *Session) Document(id string) (UploadedDocument, error) {
	for _, d := range s.Documents {
		if d.ID == id {
			return d, nil
		}
	}
	return UploadedDocument{}, fmt.Errorf("%q: %w", id, ErrDocumentNotFound)
}

// DocumentAt returns the n-th uploaded document, counting from 1 as shown
// to the user.
func (s *Session) DocumentAt(n int) (UploadedDocument, error) {
	if n < 1 || n > len(s.Documents) {
		return UploadedDocument{}, fmt.Errorf("#%d: %w", n, ErrDocumentNotFound)
	}
	return s.Documents[n-1], nil
}

// AppendEntry adds a turn to the transcript.
func (s *Session) AppendEntry(e ChatEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.Entries = append(s.Entries, e)
	s.touch()
}

// NewQuestion validates text and builds the Question sent to the backend.
// History and documents are snapshotted so later session mutation does not
// leak into an in-flight request. The question counter is incremented only
// for valid questions.
func (s *Session) NewQuestion(text string) (Question, error) {
	q := Question{
		Text:       strings.TrimSpace(text),
		Department: s.Department,
		Documents:  append([]UploadedDocument(nil), s.Documents...),
		History:    append([]ChatEntry(nil), s.Entries...),
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	s.QuestionCount++
	s.touch()
	return q, nil
}

// Reset clears the transcript, documents, and question counter. The session
// ID and department survive a reset.
func (s *Session) Reset() {
	s.Documents = nil
	s.Entries = nil
	s.QuestionCount = 0
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
