package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Run("header only for empty log", func(t *testing.T) {
		var sb strings.Builder
		require.NoError(t, WriteCSV(&sb, nil))
		assert.Equal(t, "Time,Emotion,Speech", sb.String())
	})

	t.Run("exact document", func(t *testing.T) {
		var sb strings.Builder
		err := WriteCSV(&sb, []Row{
			{Time: "08:00:01", Emotion: "happy", Speech: ""},
			{Time: "08:00:02", Emotion: "sad", Speech: "hi there"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Time,Emotion,Speech\n08:00:01,happy,\n08:00:02,sad,hi there", sb.String())
	})

	t.Run("speech commas pass through unescaped", func(t *testing.T) {
		var sb strings.Builder
		err := WriteCSV(&sb, []Row{
			{Time: "09:15:00", Emotion: "neutral", Speech: "well, maybe, later"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Time,Emotion,Speech\n09:15:00,neutral,well, maybe, later", sb.String())
	})
}
