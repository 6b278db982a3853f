package bot

import (
	"regexp"
	"strings"
)

// An '@' inside a word, as in an email address, is not a mention.
var mentionPattern = regexp.MustCompile(`(^|\W)@(\w+)`)

// FirstMention returns the persona named by the first '@handle' in text that
// matches one of personas.
func FirstMention(personas []Persona, text string) (Persona, bool) {
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if p, ok := findPersona(personas, m[2]); ok {
			return p, true
		}
	}
	return Persona{}, false
}

// StripMentions removes every '@handle' token and collapses the remaining whitespace.
func StripMentions(text string) string {
	return strings.Join(strings.Fields(mentionPattern.ReplaceAllString(text, "${1} ")), " ")
}

// Prompt builds the completion prompt for p from a chat message.
func Prompt(p Persona, text string) string {
	return p.Instruction + "\n\n" + StripMentions(text)
}
