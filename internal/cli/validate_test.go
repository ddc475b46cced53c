package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coinrushManifest = `
game: coinrush: {
	description: "Grab coins until none remain."
	players: { min: 2, max: 5 }
	action: take: {
		prompt: "Take a coin"
		selection: coin: {
			kind:      "piece"
			pieceKind: "coin"
		}
	}
}
`

func writeManifestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateAgreeingManifest(t *testing.T) {
	path := writeManifestFile(t, coinrushManifest)

	out, err := executeCommand(t, "validate", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ coinrush matches its rule set")
}

func TestValidateAgreeingManifestJSON(t *testing.T) {
	path := writeManifestFile(t, coinrushManifest)

	out, err := executeCommand(t, "validate", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Manifests, 1)
	assert.True(t, resp.Data.Manifests[0].Valid)
}

func TestValidateReportsMismatches(t *testing.T) {
	path := writeManifestFile(t, `
game: coinrush: {
	players: { min: 2, max: 4 }
	action: take: {
		selection: coin: {
			kind:      "piece"
			pieceKind: "coin"
		}
	}
	action: steal: {
		selection: coin: { kind: "piece", pieceKind: "coin" }
	}
}
`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "player bounds differ")
	assert.Contains(t, out, `manifest action "steal" is not implemented`)
}

func TestValidateUnregisteredGame(t *testing.T) {
	path := writeManifestFile(t, `
game: whist: {
	players: { min: 4, max: 4 }
	action: deal: {}
}
`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `no game named "whist" is registered`)
}

func TestValidateCompileError(t *testing.T) {
	path := writeManifestFile(t, `
game: coinrush: {
	players: { min: 2, max: 5 }
}
`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "at least one action is required")
}

func TestValidateShippedManifests(t *testing.T) {
	for _, name := range []string{"caravan", "coinrush"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("..", "..", "manifests", name+".cue")
			out, err := executeCommand(t, "validate", path)
			require.NoError(t, err, out)
			assert.Contains(t, out, "matches its rule set")
		})
	}
}

func TestValidateMissingFile(t *testing.T) {
	_, err := executeCommand(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
