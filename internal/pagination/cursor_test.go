package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id string
	at time.Time
}

func rowKey(r row) (string, time.Time) { return r.id, r.at }

func TestCursor_EncodeDecode(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	token := (&Cursor{LastID: "abc", Timestamp: ts}).Encode()
	require.NotEmpty(t, token)

	got, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.LastID)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestCursor_EmptyValues(t *testing.T) {
	assert.Empty(t, (*Cursor)(nil).Encode())
	assert.Empty(t, (&Cursor{}).Encode())

	got, err := Decode("")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecode_Invalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm8tc2VwYXJhdG9y", "aWR8bm90LWEtdGltZQ"} {
		_, err := Decode(token)
		assert.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 5, NormalizeLimit(5))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
}

func TestNewPage(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{"a", base}, {"b", base.Add(-time.Hour)}, {"c", base.Add(-2 * time.Hour)}}

	t.Run("has more", func(t *testing.T) {
		page := NewPage(rows, 2, rowKey)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)

		cursor, err := Decode(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, "b", cursor.LastID)
	})

	t.Run("last page", func(t *testing.T) {
		page := NewPage(rows, 3, rowKey)
		assert.Len(t, page.Items, 3)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("empty", func(t *testing.T) {
		page := NewPage[row](nil, 3, rowKey)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})
}
