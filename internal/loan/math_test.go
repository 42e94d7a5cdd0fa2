package loan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	t.Run("wide intermediate", func(t *testing.T) {
		got, err := mulDiv(math.MaxUint64, 5_000, BasisPoints)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64/2), got)
	})
	t.Run("floors", func(t *testing.T) {
		got, err := mulDiv(199, 50, BasisPoints)
		require.NoError(t, err)
		assert.Zero(t, got)
	})
	t.Run("quotient overflow", func(t *testing.T) {
		_, err := mulDiv(math.MaxUint64, 2, 1)
		assert.ErrorIs(t, err, ErrOverflow)
	})
	t.Run("zero denominator", func(t *testing.T) {
		_, err := mulDiv(1, 1, 0)
		assert.ErrorIs(t, err, ErrDivideByZero)
	})
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := checkedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = checkedAdd32(math.MaxUint32, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = checkedSub32(0, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	sum, err := checkedAdd(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum)

	assert.Zero(t, saturatingSub(1, 2))
	assert.Equal(t, uint64(1), saturatingSub(3, 2))
}

func TestBpsOf(t *testing.T) {
	fee, err := BpsOf(1_000_000, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), fee)

	all, err := BpsOf(123, BasisPoints)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), all)
}
