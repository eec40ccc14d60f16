package errs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationMessageAndKind(t *testing.T) {
	err := Validation("query.Limit", ErrWrongType, "expects a positive integer as an argument")
	require.Error(t, err)

	assert.Equal(t, "query.Limit expects a positive integer as an argument", err.Error())
	assert.True(t, Is(err, ErrWrongType))
	assert.False(t, Is(err, ErrInvalidEnum))
}

func TestValidationFormatsArgs(t *testing.T) {
	err := Validation("tx.LoadFromFile", ErrResource, "%s does not have the extension .edn", "data.txt")
	assert.Equal(t, "tx.LoadFromFile data.txt does not have the extension .edn", err.Error())
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := Validation("schema.Unique", ErrInvalidEnum, "bad")
	wrapped := Wrap(err, "compile attribute")

	assert.Equal(t, ErrInvalidEnum, KindOf(wrapped))
	assert.Nil(t, KindOf(New("plain")))
}
