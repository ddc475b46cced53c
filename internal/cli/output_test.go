package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E_MANIFEST", "manifest check failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_MANIFEST", resp.Error.Code)
	assert.Equal(t, "manifest check failed", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("All manifests agree")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All manifests agree")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("E_MANIFEST", "manifest check failed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_MANIFEST]")
	assert.Contains(t, buf.String(), "manifest check failed")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "coinrush.cue"}
	err := formatter.Error("E_MANIFEST", "manifest check failed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Checking %s", "coinrush")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Checking coinrush")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_VerboseLogPrefersErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("diagnostic")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "diagnostic")
}

func TestExitError(t *testing.T) {
	plain := NewExitError(ExitFailure, "scenario failed")
	assert.Equal(t, "scenario failed", plain.Error())
	assert.Equal(t, ExitFailure, GetExitCode(plain))

	inner := errors.New("file missing")
	wrapped := WrapExitError(ExitCommandError, "failed to load script", inner)
	assert.Contains(t, wrapped.Error(), "file missing")
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, inner)
}

func TestGetExitCodeDefaultsToFailure(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))
}
