package eventing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	called := false
	err := registry.Register("membership_application.finalized", func(ctx context.Context, data []byte) error {
		called = true
		return nil
	})
	require.NoError(t, err)

	handler, ok := registry.Handler("membership_application.finalized")
	require.True(t, ok)
	require.NoError(t, handler(context.Background(), nil))
	assert.True(t, called)
}

func TestRegistry_LookupNormalizesHyphenatedTags(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("membership_application.cancelled", func(ctx context.Context, data []byte) error {
		return nil
	}))

	_, ok := registry.Handler("membership-application.cancelled")
	assert.True(t, ok)
}

func TestRegistry_DuplicateRegistrationFails(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("schema_registered", func(ctx context.Context, data []byte) error {
		return nil
	}))

	// The hyphenated spelling is the same canonical tag; it must not create a
	// second registration.
	err := registry.Register("schema-registered", func(ctx context.Context, data []byte) error {
		return nil
	})
	assert.Error(t, err)
}

func TestRegistry_UnknownType(t *testing.T) {
	registry := NewRegistry()
	_, ok := registry.Handler("unknown.type")
	assert.False(t, ok)
}
