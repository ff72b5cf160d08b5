package json_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/tutor"
	tutorjson "github.com/fwojciec/tutor/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() tutor.Session {
	created := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	return tutor.Session{
		ID:            "sess-123",
		Department:    "physics",
		QuestionCount: 1,
		CreatedAt:     created,
		UpdatedAt:     created.Add(5 * time.Minute),
		Documents: []tutor.UploadedDocument{
			{
				ID:         "doc-1",
				Name:       "lecture.pdf",
				URI:        "files/abc",
				MIMEType:   "application/pdf",
				Size:       2048,
				UploadedAt: created.Add(time.Minute),
			},
		},
		Entries: []tutor.ChatEntry{
			{Role: tutor.RoleUser, Text: "What is entropy?", Timestamp: created.Add(2 * time.Minute)},
			{
				Role:        tutor.RoleAssistant,
				Text:        "Entropy is\n\n**[response interrupted: EOF]**",
				Interrupted: true,
				Timestamp:   created.Add(3 * time.Minute),
			},
		},
	}
}

func TestMarshalSession_RoundTrip(t *testing.T) {
	t.Parallel()
	session := sampleSession()

	data, err := tutorjson.MarshalSession(session)
	require.NoError(t, err)

	got, err := tutorjson.UnmarshalSession(data)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestMarshalSession_V1Envelope(t *testing.T) {
	t.Parallel()
	data, err := tutorjson.MarshalSession(sampleSession())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.JSONEq(t, `1`, string(raw["version"]))
	for _, key := range []string{"id", "department", "question_count", "created_at", "updated_at", "documents", "entries"} {
		assert.Contains(t, raw, key)
	}

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(raw["entries"], &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0]["role"])
	assert.NotContains(t, entries[0], "interrupted")
	assert.Equal(t, true, entries[1]["interrupted"])

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(raw["documents"], &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "application/pdf", docs[0]["mime_type"])
}

func TestMarshalSession_EmptySession(t *testing.T) {
	t.Parallel()
	session := tutor.NewSession("empty", time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC))

	data, err := tutorjson.MarshalSession(session)
	require.NoError(t, err)

	got, err := tutorjson.UnmarshalSession(data)
	require.NoError(t, err)

	assert.Equal(t, "empty", got.ID)
	assert.Empty(t, got.Entries)
	assert.Empty(t, got.Documents)
	assert.Zero(t, got.QuestionCount)
}

func TestMarshalSession_UnknownRole(t *testing.T) {
	t.Parallel()
	session := tutor.Session{
		ID:      "bad-role",
		Entries: []tutor.ChatEntry{{Role: "system", Text: "x"}},
	}
	_, err := tutorjson.MarshalSession(session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0")
}

func TestUnmarshalSession_UnknownRole(t *testing.T) {
	t.Parallel()
	data := []byte(`{"version":1,"id":"x","entries":[{"role":"tool","text":"x"}]}`)
	_, err := tutorjson.UnmarshalSession(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestUnmarshalSession_UnsupportedVersion(t *testing.T) {
	t.Parallel()
	_, err := tutorjson.UnmarshalSession([]byte(`{"version":2,"id":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported envelope version")
}

func TestUnmarshalSession_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := tutorjson.UnmarshalSession([]byte(`{`))
	require.Error(t, err)
}

func TestSave_And_Load(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := tutorjson.Path(dir, "save-load")
	session := sampleSession()

	require.NoError(t, tutorjson.Save(path, session))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := tutorjson.Load(path)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestSave_Overwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "s.json")
	session := sampleSession()
	require.NoError(t, tutorjson.Save(path, session))

	session.Reset()
	require.NoError(t, tutorjson.Save(path, session))

	got, err := tutorjson.Load(path)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
	assert.Equal(t, "physics", got.Department)
}

func TestLoad_NonexistentFile(t *testing.T) {
	t.Parallel()
	_, err := tutorjson.Load("/nonexistent/path/session.json")
	assert.Error(t, err)
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "deep", "session.json")

	require.NoError(t, tutorjson.Save(path, tutor.Session{ID: "nested-save"}))

	got, err := tutorjson.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nested-save", got.ID)
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("sessions", "abc.json"), tutorjson.Path("sessions", "abc"))
}
