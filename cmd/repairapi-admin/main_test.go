package main

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionMatchesFilters(t *testing.T) {
	entry := sessionEntry{Email: "Riley.Tech@example.com", Role: "employee"}

	require.True(t, sessionMatchesFilters(entry, "", ""))
	require.True(t, sessionMatchesFilters(entry, "riley", ""))
	require.True(t, sessionMatchesFilters(entry, "", "Employee"))
	require.False(t, sessionMatchesFilters(entry, "morgan", ""))
	require.False(t, sessionMatchesFilters(entry, "", "admin"))
}

func TestFormatRedisTTL(t *testing.T) {
	require.Equal(t, "no expiry", formatRedisTTL(-1))
	require.Equal(t, "missing", formatRedisTTL(-2))
	require.Equal(t, "1m30s", formatRedisTTL(90*time.Second))
}

func TestPrintSessionEntriesIncludesTotals(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer func() {
		os.Stdout = oldStdout
	}()

	os.Stdout = w

	entries := []sessionEntry{
		{Key: "session:abc", Email: "alex.carter@example.com", Role: "user", UserID: "u1", TTL: time.Minute},
	}
	err = printSessionEntries(entries, 3, 1)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	os.Stdout = oldStdout

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	outStr := string(output)
	require.Contains(t, outStr, "alex.carter@example.com")
	require.Contains(t, outStr, "Total sessions matched: 3")
	require.Contains(t, outStr, "More sessions available")
}
