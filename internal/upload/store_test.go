package upload

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("resume", "my resume.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "resume_20250601_120000.000000000_my_resume.pdf", ref)

	f, err := s.Open(ref)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestSave_RejectsDuplicateName(t *testing.T) {
	s := newTestStore(t)

	// Frozen clock makes the second save collide on the same name.
	_, err := s.Save("resume", "cv.pdf", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = s.Save("resume", "cv.pdf", strings.NewReader("b"))
	assert.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Open("resume_20250601_120000.000000000_gone.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, ref := range []string{
		"",
		"../secret.txt",
		"..",
		"a/b.pdf",
		".hidden",
	} {
		_, err := s.Open(ref)
		assert.ErrorIs(t, err, ErrNotFound, "ref %q", ref)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"my resume (final).pdf", "my_resume__final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ada\cv.docx`, "cv.docx"},
		{"...", "upload"},
		{"", "upload"},
		{"résumé.pdf", "r_sum_.pdf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitize(tc.in), "input %q", tc.in)
	}
}
