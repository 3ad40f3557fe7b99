package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/model"
)

func TestNewConfigDefaults(t *testing.T) {
	c, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, ModeClient, c.Mode)
	assert.NotNil(t, c.Policy)
	assert.NotNil(t, c.Settings)
	assert.NotNil(t, c.Logger)
}

func TestNewConfigOptions(t *testing.T) {
	settings := stencil.CodegenSettings(stencil.WithDebugComments(true))
	c, err := NewConfig(
		WithMode(ModeServer),
		WithSettings(settings),
		WithLogger(zaptest.NewLogger(t)),
		WithPolicy(DefaultPolicy().With(model.KindInteger, model.TraitRange)),
	)
	require.NoError(t, err)
	assert.Equal(t, ModeServer, c.Mode)
	assert.True(t, c.Settings.Codegen().Bool(stencil.DebugCommentsKey))
	assert.True(t, c.Policy.Materializes(model.KindInteger, model.TraitRange))
}

func TestNewConfigRejectsBadOptions(t *testing.T) {
	_, err := NewConfig(WithMode(Mode(42)))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = NewConfig(WithPolicy(nil))
	require.Error(t, err)

	_, err = NewConfig(WithLogger(nil))
	require.Error(t, err)
}

func TestMustNewConfigPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewConfig(WithMode(Mode(42)))
	})
}

func TestPolicyWithDoesNotMutate(t *testing.T) {
	base := DefaultPolicy()
	widened := base.With(model.KindInteger, model.TraitRange)
	assert.False(t, base.Materializes(model.KindInteger, model.TraitRange))
	assert.True(t, widened.Materializes(model.KindInteger, model.TraitRange))
	assert.True(t, widened.Materializes(model.KindString, model.TraitLength))
}
