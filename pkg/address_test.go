package pkg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentity(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		identity, err := EncodeIdentity(bytes.Repeat([]byte{7}, IdentityLength))
		require.NoError(t, err)
		assert.NoError(t, ValidateIdentity(identity))
	})
	t.Run("system program", func(t *testing.T) {
		assert.NoError(t, ValidateIdentity("11111111111111111111111111111111"))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Error(t, ValidateIdentity(""))
	})
	t.Run("invalid alphabet", func(t *testing.T) {
		// 0, O, I and l are not part of the base58 alphabet
		assert.Error(t, ValidateIdentity("0OIl"))
	})
	t.Run("wrong length", func(t *testing.T) {
		identity, err := EncodeIdentity(bytes.Repeat([]byte{1}, IdentityLength))
		require.NoError(t, err)
		assert.Error(t, ValidateIdentity(identity[:10]))
	})
	t.Run("encode wrong length", func(t *testing.T) {
		_, err := EncodeIdentity([]byte{1, 2, 3})
		assert.Error(t, err)
	})
}
