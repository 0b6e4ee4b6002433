package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWithChunks(t *testing.T, chunks ...string) *Store {
	t.Helper()
	s := NewStore(DefaultChunkSize)
	for _, c := range chunks {
		s.Add("doc", c)
	}
	require.NoError(t, s.SetActive(SelectAll))
	return s
}

func TestRetrieveContext_RanksByOccurrence(t *testing.T) {
	a := "Rau muống xào tỏi. Rau muống giàu chất xơ."
	b := "Phở bò ăn kèm rau muống luộc."
	c := "Bánh mì pate."
	s := storeWithChunks(t, c, b, a)

	got := s.RetrieveContext("muống", 2)
	assert.Equal(t, []string{a, b}, got)
}

func TestRetrieveContext_IgnoresShortTermsAndCase(t *testing.T) {
	s := storeWithChunks(t, "CANH CHUA cá lóc", "cơm trắng")

	got := s.RetrieveContext("món canh cho bữa tối", 3)
	assert.Equal(t, []string{"CANH CHUA cá lóc"}, got)

	assert.Empty(t, s.RetrieveContext("cá bò gà", 3), "terms of three runes or fewer are dropped")
}

func TestRetrieveContext_StableOnTies(t *testing.T) {
	s := storeWithChunks(t, "first bún", "second bún", "third bún")
	got := s.RetrieveContext("first second third", 3)
	assert.Equal(t, []string{"first bún", "second bún", "third bún"}, got)
}

func TestRetrieveContext_RespectsSelection(t *testing.T) {
	s := NewStore(DefaultChunkSize)
	d1 := s.Add("a", "thông tin dinh dưỡng")
	s.Add("b", "dinh dưỡng cân bằng")

	assert.Empty(t, s.RetrieveContext("dinh dưỡng", 3), "nothing selected")

	require.NoError(t, s.SetActive(d1.ID))
	assert.Equal(t, []string{"thông tin dinh dưỡng"}, s.RetrieveContext("dưỡng", 3))

	require.NoError(t, s.SetActive(SelectAll))
	assert.Len(t, s.RetrieveContext("dưỡng", 3), 2)

	assert.Error(t, s.SetActive("missing"))
}

func TestStore_RemoveActiveClearsSelection(t *testing.T) {
	s := NewStore(DefaultChunkSize)
	d := s.Add("a", "text")
	require.NoError(t, s.SetActive(d.ID))

	assert.True(t, s.Remove(d.ID))
	assert.Equal(t, SelectNone, s.ActiveSelection())
	assert.Empty(t, s.Documents())
	assert.False(t, s.Remove(d.ID))
}

func TestChunk_SplitsByRunes(t *testing.T) {
	text := strings.Repeat("ă", 25)
	chunks := Chunk(text, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("ă", 10), chunks[0])
	assert.Equal(t, strings.Repeat("ă", 5), chunks[2])
	assert.Nil(t, Chunk("", 10))
}

func TestFormatContext(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))

	got := FormatContext([]string{"một", "hai"})
	assert.Equal(t, "### Thông tin từ tài liệu tham khảo:\n\n[Đoạn 1]:\nmột\n\n[Đoạn 2]:\nhai\n\n", got)
	assert.Equal(t, got, FormatContext([]string{"một", "hai"}))
}
