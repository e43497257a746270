package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

func sampleSubmission(token string) *models.Submission {
	return &models.Submission{
		Token:             token,
		SourceDocumentRef: "uploads/" + token + ".pdf",
		ResultDocumentRef: "solutions/" + token + "/E1_Ada_B.pdf",
		Metadata:          models.Metadata{Enrollment: "E1", Name: "Ada", Batch: "B"},
		CreatedAt:         time.Date(2024, 5, 1, 10, 30, 0, 123, time.UTC),
	}
}

// exerciseStore runs the contract every Store implementation honours.
func exerciseStore(t *testing.T, s Store) {
	token := uuid.NewString()
	t.Helper()
	ctx := context.Background()

	_, err := s.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sub := sampleSubmission(token)
	require.NoError(t, s.Create(ctx, sub))

	got, err := s.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sub.Token, got.Token)
	assert.Equal(t, sub.SourceDocumentRef, got.SourceDocumentRef)
	assert.Equal(t, sub.ResultDocumentRef, got.ResultDocumentRef)
	assert.Equal(t, sub.Metadata, got.Metadata)
	assert.True(t, sub.CreatedAt.Equal(got.CreatedAt))

	dup := sampleSubmission(token)
	dup.ResultDocumentRef = "other"
	assert.ErrorIs(t, s.Create(ctx, dup), apperr.ErrDuplicate)

	got, err = s.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sub.ResultDocumentRef, got.ResultDocumentRef)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, "memory://")
		require.NoError(t, err)
		defer s.Close()
		exerciseStore(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "db", "subs.db"))
		require.NoError(t, err)
		defer s.Close()
		exerciseStore(t, s)
	})

	t.Run("redis", func(t *testing.T) {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			t.Skip("REDIS_ADDR not set")
		}
		s, err := Open(ctx, "redis://"+addr+"/15")
		require.NoError(t, err)
		defer s.Close()
		exerciseStore(t, s)
	})

	t.Run("no scheme", func(t *testing.T) {
		_, err := Open(ctx, "data.db")
		assert.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := Open(ctx, "mongodb://localhost")
		assert.Error(t, err)
	})
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	files, err := NewFiles(filepath.Join(root, "uploads"), filepath.Join(root, "solutions"))
	require.NoError(t, err)

	src, err := files.SaveUpload("tok", []byte("%PDF-source"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "tok.pdf"), src)

	out, err := files.SaveSolution("tok", "E1_Ada_B.pdf", []byte("%PDF-out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "solutions", "tok", "E1_Ada_B.pdf"), out)

	f, err := files.Open(out)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, []byte("%PDF-out"), data)

	entries, err := os.ReadDir(filepath.Join(root, "solutions", "tok"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")

	require.NoError(t, files.Remove(out))
	require.NoError(t, files.Remove(src))
	require.NoError(t, files.Remove(src))
	assert.NoFileExists(t, out)
	assert.NoDirExists(t, filepath.Join(root, "solutions", "tok"))
	assert.NoFileExists(t, src)

	_, err = files.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.ErrorIs(t, files.Remove(filepath.Join(root, "elsewhere")), ErrOutsideRoot)
}

func TestFilesSameNameDifferentTokens(t *testing.T) {
	root := t.TempDir()
	files, err := NewFiles(filepath.Join(root, "u"), filepath.Join(root, "s"))
	require.NoError(t, err)

	a, err := files.SaveSolution("a", "same.pdf", []byte("A"))
	require.NoError(t, err)
	b, err := files.SaveSolution("b", "same.pdf", []byte("B"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveSolutionFailureLeavesNoDirectory(t *testing.T) {
	root := t.TempDir()
	files, err := NewFiles(filepath.Join(root, "u"), filepath.Join(root, "s"))
	require.NoError(t, err)

	// An empty name resolves to the token directory itself, so the final
	// rename onto that directory fails.
	_, err = files.SaveSolution("tok", "", []byte("%PDF-out"))
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(root, "s", "tok"))

	entries, err := os.ReadDir(filepath.Join(root, "s"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
