package printer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAssetLabelsPDF(t *testing.T) {
	var labels []Label
	for i := 1; i <= 30; i++ {
		labels = append(labels, Label{
			Code:    fmt.Sprintf("A-%03d", i),
			Name:    "Laptop",
			Content: fmt.Sprintf("http://localhost/assets/%d", i),
		})
	}

	out, err := GenerateAssetLabelsPDF(labels, DefaultLabelConfig())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	single, err := GenerateAssetLabelsPDF(labels[:1], DefaultLabelConfig())
	require.NoError(t, err)
	assert.Greater(t, len(out), len(single))
}

func TestGenerateAssetLabelsPDF_InvalidGrid(t *testing.T) {
	_, err := GenerateAssetLabelsPDF([]Label{{Code: "A", Content: "x"}}, LabelConfig{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
