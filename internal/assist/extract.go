package assist

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultWebsiteName is used when no usable name can be pulled from the
// transcript.
const DefaultWebsiteName = "My Website"

// nameRule is one step of the website-name cascade: a pattern plus the
// capture group holding the candidate name.
type nameRule struct {
	re    *regexp.Regexp
	group int
}

// Ordered highest priority first. Terminators cut the capture at
// punctuation, trailing politeness or end of input.
var websiteNameRules = []nameRule{
	// "website name is X" / "name is X"
	{regexp.MustCompile(`(?i)(?:website\s+)?name\s+is\s+([A-Za-z][A-Za-z0-9\s-]*?)(?:\s*[,.]|\s+(?:for|please|sir)\b|\s*$)`), 1},
	// "create website X" / "build a website called X"
	{regexp.MustCompile(`(?i)(?:create|build|make)\s+(?:a\s+)?(?:website|web\s*site|webpage)\s+(?:called\s+|named\s+)?([A-Za-z][A-Za-z0-9\s-]*?)(?:\s*[,.]|\s+(?:for|please|sir)\b|\s*$)`), 1},
	// "create a X website"
	{regexp.MustCompile(`(?i)(?:create|build|make)\s+a\s+([A-Za-z][A-Za-z0-9\s-]*?)\s+(?:website|web\s*site|webpage|portfolio)(?:\s*[,.]|\s+(?:for|please|sir)\b|\s*$)`), 1},
}

var (
	nameFillerRe = regexp.MustCompile(`(?i)\s+(?:for\s+me|please|sir|the)\s+`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// WebsiteName extracts the requested site name from a build command. The
// rules run in priority order and the first usable capture wins; a name
// that fails validation falls back to DefaultWebsiteName.
func WebsiteName(command string) string {
	name := ""
	for _, r := range websiteNameRules {
		m := r.re.FindStringSubmatch(command)
		if m == nil {
			continue
		}
		cand := strings.TrimSpace(m[r.group])
		if len(cand) > 1 {
			name = cand
			break
		}
	}

	name = nameFillerRe.ReplaceAllString(name, " ")
	name = spacesRe.ReplaceAllString(strings.TrimSpace(name), " ")

	if len(name) < 2 || strings.EqualFold(name, DefaultWebsiteName) {
		return DefaultWebsiteName
	}
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// replyMarkerRe finds the structured tail the model appends when the user
// asked for something to run on a PC. Everything after "Command:" or
// "Query:" is the payload; everything before it is spoken aloud.
var replyMarkerRe = regexp.MustCompile(`(?is)\b(command|query)\s*:\s*(.+)$`)

// ReplyCommand is a remote instruction carried inside a model reply.
type ReplyCommand struct {
	// Visible is the part of the reply meant to be spoken.
	Visible string
	// Payload is the shell command or PowerShell query to dispatch.
	Payload string
	// IsQuery marks payloads whose output should be read back.
	IsQuery bool
}

// SplitReplyMarker separates a model reply into its spoken part and an
// optional remote command. ok is false when the reply carries no marker.
func SplitReplyMarker(reply string) (ReplyCommand, bool) {
	loc := replyMarkerRe.FindStringSubmatchIndex(reply)
	if loc == nil {
		return ReplyCommand{Visible: strings.TrimSpace(reply)}, false
	}

	kind := strings.ToLower(reply[loc[2]:loc[3]])
	payload := strings.TrimSpace(reply[loc[4]:loc[5]])
	payload = strings.Trim(payload, "`")
	payload = strings.TrimSpace(payload)

	rc := ReplyCommand{
		Visible: strings.TrimSpace(reply[:loc[0]]),
		Payload: payload,
		IsQuery: kind == "query",
	}
	if rc.Payload == "" {
		return ReplyCommand{Visible: strings.TrimSpace(reply)}, false
	}
	return rc, true
}

// deviceTargetRe matches a trailing "<preposition> <up to three words
// ending in a device noun>" phrase, capturing only the nickname.
var deviceTargetRe = regexp.MustCompile(`(?i)\b(?:on|in|at|to|from)\s+((?:[\w.-]+\s+){0,2}[\w.-]*(?:pc|computer|laptop|desktop))[\s.,!?]*$`)

var pleasePrefixRe = regexp.MustCompile(`(?i)^please\s+`)

// DeviceTarget pulls a PC nickname off the end of a transcript and returns
// the remainder of the sentence with the wake word stripped. An empty
// wakeWord means DefaultWakeWord. ok is false when no device phrase is
// present.
func DeviceTarget(transcript, wakeWord string) (nickname, commandPart string, ok bool) {
	input := strings.ToLower(strings.TrimSpace(transcript))

	loc := deviceTargetRe.FindStringSubmatchIndex(input)
	if loc == nil {
		return "", cleanCommandPart(input, wakeWord), false
	}

	nickname = strings.TrimSpace(input[loc[2]:loc[3]])
	nickname = strings.Trim(nickname, ",.!?:;")
	for _, prep := range []string{"from ", "on ", "in ", "at ", "to "} {
		nickname = strings.TrimPrefix(nickname, prep)
	}
	// Transcription often glues short nicknames together.
	if nickname == "mypc" {
		nickname = "my pc"
	}

	commandPart = cleanCommandPart(strings.TrimSpace(input[:loc[0]]), wakeWord)
	return nickname, commandPart, true
}

func cleanCommandPart(s, wakeWord string) string {
	if wakeWord == "" {
		wakeWord = DefaultWakeWord
	}
	wakeRe := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(strings.ToLower(wakeWord)) + `\s*,?\s*`)
	s = wakeRe.ReplaceAllString(s, "")
	s = pleasePrefixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
