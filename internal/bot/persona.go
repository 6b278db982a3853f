// Package bot detects persona mentions in chat text and runs completion
// requests for them off the hub's event loop.
package bot

import "strings"

// Persona is an automated reply identity with a fixed prompt instruction.
type Persona struct {
	// Handle is what users type after '@'. Matching ignores case.
	Handle string
	// Name authors the persona's messages and typing indicators.
	Name        string
	Instruction string
}

// DefaultPersonas returns the built-in personas.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Handle: "PWTeacher",
			Name:   "PWTeacher-Bot",
			Instruction: "You are PWTeacher, a patient programming and web development teacher. " +
				"Answer the question below clearly in a few short paragraphs, with a small example when it helps.",
		},
		{
			Handle: "Comedian",
			Name:   "Comedian-Bot",
			Instruction: "You are Comedian, a friendly stand-up comic in a group chat. " +
				"Reply to the message below with one short, clean joke or witty remark.",
		},
		{
			Handle: "Motivator",
			Name:   "Motivator-Bot",
			Instruction: "You are Motivator, an upbeat coach. " +
				"Reply to the message below with two or three sentences of genuine encouragement.",
		},
	}
}

func findPersona(personas []Persona, handle string) (Persona, bool) {
	for _, p := range personas {
		if strings.EqualFold(p.Handle, handle) {
			return p, true
		}
	}
	return Persona{}, false
}
