package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(old))
	})
}

func TestParseHeaderFlags(t *testing.T) {
	tests := []struct {
		name        string
		input       []string
		want        map[string]string
		expectError bool
	}{
		{
			name: "Empty_ReturnsNil",
		},
		{
			name:  "SingleHeader",
			input: []string{"X-Env: staging"},
			want:  map[string]string{"X-Env": "staging"},
		},
		{
			name:  "ValueWithColon",
			input: []string{"X-Time: 12:30"},
			want:  map[string]string{"X-Time": "12:30"},
		},
		{
			name:        "MissingColon_Fails",
			input:       []string{"not-a-header"},
			expectError: true,
		},
		{
			name:        "EmptyName_Fails",
			input:       []string{": value"},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseHeaderFlags(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// End-to-end through the wired container: a fixed token from the
// environment, a server that rejects any other Authorization value, and a
// single send that succeeds on its first forward.
func TestSendCommand_AgainstServer(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fixed-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, "pong")
	}))
	defer server.Close()

	t.Setenv("TOKENGATE_TOKEN", "fixed-token")
	t.Setenv("TOKENGATE_BASE_URL", server.URL)
	chdirTemp(t)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"send", "--quiet", "/v1/ping"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "pong")

	mu.Lock()
	assert.Equal(t, 1, requests, "a valid fixed token needs no retry")
	mu.Unlock()
}

func TestSendCommand_ConcurrentCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	t.Setenv("TOKENGATE_TOKEN", "fixed-token")
	t.Setenv("TOKENGATE_BASE_URL", server.URL)
	chdirTemp(t)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"send", "--quiet", "--count", "3", "/v1/ping"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "ok\nok\nok\n", out.String())
}
