package extid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)

	t.Run("новая подписка", func(t *testing.T) {
		s := EncodeNewSubscription(7, 3, issuedAt)
		assert.Equal(t, "INV-7-3-1700000000", s)

		intent, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, KindNewSubscription, intent.Kind)
		assert.Equal(t, int64(7), intent.UserID)
		assert.Equal(t, int64(3), intent.PlanID)
		assert.Equal(t, int64(1700000000), intent.IssuedAt)
	})

	t.Run("апгрейд", func(t *testing.T) {
		s := EncodeUpgrade(42, 5, issuedAt)
		assert.Equal(t, "UPG-42-5-1700000000", s)

		intent, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, KindUpgrade, intent.Kind)
		assert.Equal(t, int64(42), intent.UserID)
		assert.Equal(t, int64(5), intent.PlanID)
	})

	t.Run("дополнение", func(t *testing.T) {
		s := EncodeAddon(7, "proxy", 15, issuedAt)
		assert.Equal(t, "ADD-7-proxy-15-1700000000", s)

		intent, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, KindAddon, intent.Kind)
		assert.Equal(t, int64(7), intent.UserID)
		assert.Equal(t, "proxy", intent.AddonType)
		assert.Equal(t, 15, intent.Quantity)
		assert.Equal(t, int64(1700000000), intent.IssuedAt)
	})
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "пустая строка", in: ""},
		{name: "неизвестный тег", in: "PAY-7-3-1700000000"},
		{name: "ADD без количества и времени", in: "ADD-7-proxy"},
		{name: "INV без времени", in: "INV-7-3"},
		{name: "нечисловой user_id", in: "INV-seven-3-1700000000"},
		{name: "нечисловое количество", in: "ADD-7-proxy-many-1700000000"},
		{name: "нечисловое время", in: "UPG-7-3-yesterday"},
		{name: "просто мусор", in: "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Decode(tt.in)
			require.ErrorIs(t, err, ErrUnparsable)
			assert.Nil(t, intent)
		})
	}
}

// Лишние поля в хвосте допустимы: проверка по минимальному числу полей.
func TestDecodeExtraFields(t *testing.T) {
	intent, err := Decode("INV-7-3-1700000000-extra")
	require.NoError(t, err)
	assert.Equal(t, int64(7), intent.UserID)
}
