package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"doculens/internal/domain"
	"doculens/internal/prompt"
)

func TestBuildPagePrompt_Deterministic(t *testing.T) {
	assert.Equal(t, prompt.BuildPagePrompt(2), prompt.BuildPagePrompt(2))
}

func TestBuildPagePrompt_VariesOnlyByPage(t *testing.T) {
	p0 := prompt.BuildPagePrompt(0)
	p1 := prompt.BuildPagePrompt(1)

	assert.NotEqual(t, p0, p1)
	assert.Contains(t, p0, "page 1")
	assert.Contains(t, p1, "page 2")
}

func TestBuildPagePrompt_EnumeratesKnownTypes(t *testing.T) {
	p := prompt.BuildPagePrompt(0)
	for _, dt := range domain.KnownDocumentTypes {
		assert.Contains(t, p, string(dt))
	}
	// unknown is internal and never offered to the model.
	assert.NotContains(t, p, string(domain.DocTypeUnknown))
}

func TestBuildPagePrompt_DocumentsContract(t *testing.T) {
	p := prompt.BuildPagePrompt(0)
	assert.Contains(t, p, `"type"`)
	assert.Contains(t, p, `"fields"`)
	assert.True(t, strings.Contains(p, "ONLY a single JSON object"))
}
