package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier("")

	cases := []struct {
		in   string
		want Kind
	}{
		{"Lucifer, build a portfolio website for me", KindWebsiteBuild},
		{"lucifer create a page for my shop", KindWebsiteBuild},
		{"Lucifer make me a website called Atlas", KindWebsiteBuild},
		{"build a website for me", KindChat}, // no wake word
		{"Lucifer, what's the weather?", KindChat},
		{"Lucifer, open the website youtube", KindChat}, // noun without a build verb
		{"hey lucifer tell me a joke", KindChat},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.in), "input: %s", tc.in)
	}
}

func TestClassifyAddressed(t *testing.T) {
	c := NewClassifier("lucifer")
	assert.True(t, c.Addressed("Hey Lucifer, hello"))
	assert.False(t, c.Addressed("hello there"))
}
