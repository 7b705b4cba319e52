// Package assist turns transcripts into actions: it classifies what the
// user asked for, extracts the slots the action needs, and drives a voice
// turn from capture to spoken reply.
package assist

import "strings"

// DefaultWakeWord is the name the assistant answers to.
const DefaultWakeWord = "lucifer"

// Kind is the coarse category of a transcript.
type Kind int

const (
	// KindChat is the default: forward to the conversational model.
	KindChat Kind = iota
	// KindWebsiteBuild asks the assistant to generate a website.
	KindWebsiteBuild
)

func (k Kind) String() string {
	switch k {
	case KindWebsiteBuild:
		return "website_build"
	default:
		return "chat"
	}
}

var (
	buildVerbs = []string{"create", "build", "make"}
	buildNouns = []string{"website", "portfolio", "page"}
)

// Classifier decides what a transcript asks for. Website builds require the
// wake word plus a build verb and a site noun; everything else is chat.
// Remote PC commands are not recognized here: they surface afterwards in
// the model's reply, which carries an explicit command marker.
type Classifier struct {
	WakeWord string
}

func NewClassifier(wakeWord string) Classifier {
	if wakeWord == "" {
		wakeWord = DefaultWakeWord
	}
	return Classifier{WakeWord: strings.ToLower(wakeWord)}
}

func (c Classifier) Classify(transcript string) Kind {
	t := strings.ToLower(transcript)
	if !strings.Contains(t, c.WakeWord) {
		return KindChat
	}
	if containsAny(t, buildVerbs) && containsAny(t, buildNouns) {
		return KindWebsiteBuild
	}
	return KindChat
}

// Addressed reports whether the transcript mentions the wake word.
func (c Classifier) Addressed(transcript string) bool {
	return strings.Contains(strings.ToLower(transcript), c.WakeWord)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
