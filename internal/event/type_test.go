package event

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthEventStampsULID(t *testing.T) {
	first := NewAuthEvent(LoginSucceeded)
	second := NewAuthEvent(LoginSucceeded)

	id, err := ulid.ParseStrict(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OccurredAt.UnixMilli(), int64(id.Time()))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, LoginSucceeded, first.Type)
}
