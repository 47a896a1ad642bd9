package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<div role="radiogroup">
  <button role="radio" aria-label="Search" data-state="checked">Search</button>
  <button role="radio" aria-label="Research" data-state="unchecked">Research</button>
</div>
<div contenteditable="true" role="textbox"><p>Ask anything</p></div>
<input type="file" multiple style="display:none">
<div class="attachment-preview"><img src="blob:https://www.perplexity.ai/1234"></div>
<button data-testid="remove-uploaded-file" aria-label="Remove file"></button>
<button aria-label="Submit" type="button"></button>
</body></html>`

func TestInspect(t *testing.T) {
	r, err := Inspect(samplePage)
	require.NoError(t, err)

	require.Len(t, r.ModeToggles, 2)
	assert.Equal(t, "Search", r.ModeToggles[0].AriaLabel)
	assert.Equal(t, "checked", r.ModeToggles[0].State)
	assert.Equal(t, "unchecked", r.ModeToggles[1].State)

	require.Len(t, r.Inputs, 1)
	assert.Equal(t, "textbox", r.Inputs[0].Role)
	assert.Equal(t, "Ask anything", r.Inputs[0].Text)

	assert.Len(t, r.FileInputs, 1)
	// preview div, blob image and the remove button
	assert.Len(t, r.UploadChips, 3)
	assert.Len(t, r.SubmitButtons, 1)

	out := r.String()
	assert.Contains(t, out, "mode toggles (2)")
	assert.Contains(t, out, `<button aria-label="Research" role="radio" data-state="unchecked"> Research`)
}

func TestInspectEmpty(t *testing.T) {
	r, err := Inspect("")
	require.NoError(t, err)
	assert.Empty(t, r.ModeToggles)
	assert.Contains(t, r.String(), "submit buttons (0)")
}
