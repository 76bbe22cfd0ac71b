package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenJournal(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	history, closeJournal := openJournal(filepath.Join(t.TempDir(), "state", "journal.db"), log)
	require.NotNil(t, history)
	defer closeJournal()

	runs, err := history.List(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Empty(t, hook.AllEntries())
}

func TestOpenJournal_UnusablePathOnlyWarns(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	history, closeJournal := openJournal(filepath.Join(blocker, "journal.db"), log)
	closeJournal()

	assert.Nil(t, history)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Contains(t, entry.Message, "journal unavailable")
	assert.Equal(t, filepath.Join(blocker, "journal.db"), entry.Data["path"])
}
