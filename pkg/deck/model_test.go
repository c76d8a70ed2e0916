package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

func TestParseDeck(t *testing.T) {
	data := []byte(`{
	  "slides": [
	    {
	      "title": "Welcome",
	      "font_color": [255, 255, 255],
	      "font_size": 28,
	      "start": 2,
	      "end": 34,
	      "left_part": {"content": "Some text", "font_size": 18},
	      "right_part": {"bullet_points": ["one", "two"], "bullet_points_header": "Agenda"}
	    },
	    {"title": "Closing", "center_part": {"content": "Thanks"}}
	  ]
	}`)

	d, err := ParseDeck(data)
	require.NoError(t, err)
	require.Len(t, d.Slides, 2)

	first := d.Slides[0]
	assert.Equal(t, "Welcome", first.Title)
	assert.Equal(t, Color{255, 255, 255}, *first.FontColor)
	assert.Equal(t, 28, first.FontSize)
	assert.Equal(t, 2.0, first.Start)
	assert.Equal(t, 34.0, first.End)
	assert.Equal(t, "Some text", first.LeftPart.Content)
	assert.Equal(t, []string{"one", "two"}, first.RightPart.BulletPoints)
	assert.Equal(t, "Agenda", first.RightPart.BulletPointsHeader)
}

func TestParseDeckRejectsEmptyDeck(t *testing.T) {
	_, err := ParseDeck([]byte(`{"slides": []}`))
	assert.True(t, errs.HasCode(err, errs.CodeDeckInvalid))
}

func TestParseDeckRejectsMalformedJSON(t *testing.T) {
	_, err := ParseDeck([]byte(`{"slides": [`))
	assert.True(t, errs.HasCode(err, errs.CodeDeckInvalid))
}

func TestSlideRejectsCenterCombinedWithSides(t *testing.T) {
	_, err := ParseDeck([]byte(`{
	  "slides": [{
	    "title": "Bad",
	    "center_part": {"content": "middle"},
	    "left_part": {"content": "left"}
	  }]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 1")
}

func TestContentPartRejectsMultipleContentKinds(t *testing.T) {
	_, err := ParseDeck([]byte(`{
	  "slides": [
	    {"title": "OK", "center_part": {"content": "fine"}},
	    {"title": "Bad", "center_part": {"content": "text", "bullet_points": ["x"]}}
	  ]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 2")
}

func TestMeaningful(t *testing.T) {
	var nilPart *ContentPart
	assert.False(t, nilPart.Meaningful())
	assert.False(t, (&ContentPart{FontSize: 20}).Meaningful())
	assert.True(t, (&ContentPart{Content: "x"}).Meaningful())
	assert.True(t, (&ContentPart{BulletPoints: []string{"x"}}).Meaningful())
	assert.True(t, (&ContentPart{Image: "aGVsbG8="}).Meaningful())
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "000000", Color{}.Hex())
	assert.Equal(t, "FF00C8", Color{255, 0, 200}.Hex())
}
