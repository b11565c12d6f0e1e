package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/service/ai"
)

const transcriptYAML = `
- role: user
  content: Jag kan inte sova
- role: assistant
  content: Vad håller dig vaken?
`

func writeTranscript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadTranscript(t *testing.T) {
	messages, err := loadTranscript(writeTranscript(t, transcriptYAML))
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chat.RoleAssistant, messages[1].Role)

	_, err = loadTranscript(writeTranscript(t, "- role: system\n  content: x\n"))
	assert.Error(t, err)
}

func TestVoicesCommand(t *testing.T) {
	out, err := run(t, "voices")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "grounded")
}

func TestPromptTakeawayCommand(t *testing.T) {
	out, err := run(t, "prompt", "takeaway", "--voice", "coach", "--format", "steps", "--transcript", writeTranscript(t, transcriptYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "Sammanfattningsformat: steps.")
	assert.Contains(t, out, "Användare: Jag kan inte sova")
}

func TestReplyOffline(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("ARK_MODEL", "")

	out, err := run(t, "reply", "--transcript", writeTranscript(t, transcriptYAML))
	require.NoError(t, err)
	assert.Equal(t, ai.OfflineReply+"\n", out)
}
