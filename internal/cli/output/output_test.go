package output

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeAuto)

	r.Success("Engine engine_1 is successfully started")
	r.Info("info")
	r.Warning("careful")
	r.Error("failed")

	assert.Contains(t, out.String(), "Engine engine_1 is successfully started")
	assert.Contains(t, out.String(), "info")
	assert.Contains(t, errOut.String(), "careful")
	assert.Contains(t, errOut.String(), "failed")
	assert.NotContains(t, out.String(), "\x1b[", "no escape codes without a terminal")
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeAuto, ModeText},
		{"", ModeText},
		{ModeJSON, ModeJSON},
		{ModeMarkdown, ModeMarkdown},
	}
	for _, tt := range tests {
		r, _, _ := newTestRenderer(tt.mode)
		assert.Equal(t, tt.want, r.EffectiveMode())
	}
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)
	require.NoError(t, r.JSON(map[string]any{"name": "engine_1"}))
	assert.Equal(t, "{\n    \"name\": \"engine_1\"\n}\n", out.String())
}

func TestRenderer_SpinWithoutTerminal(t *testing.T) {
	r, _, errOut := newTestRenderer(ModeText)
	boom := errors.New("boom")

	called := false
	err := r.Spin(context.Background(), "waiting", func(context.Context) error {
		called = true
		return boom
	})

	assert.True(t, called)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, errOut.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(new(bytes.Buffer)))

	r, _, _ := newTestRenderer(ModeText)
	assert.False(t, r.IsTTY())
}
