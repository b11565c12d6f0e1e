// Package safety is a crude keyword pre-filter for crisis language. It is not
// a safety guarantee: no stemming, no context, English phrases only.
package safety

import "strings"

var crisisKeywords = []string{
	"kill myself",
	"suicide",
	"want to die",
	"end my life",
	"hurt myself",
	"harming myself",
	"hurt someone",
	"kill someone",
}

const crisisText = "Jag är verkligen glad att du delade det här. Jag kan inte ge akut hjälp, men din säkerhet är viktig just nu. " +
	"Ring 112 omedelbart om du befinner dig i akut fara. Du kan också ringa Mind Självmordslinjen på 90101, " +
	"eller Jourhavande medmänniska på 08-702 16 80. Försök gärna att nå en person du litar på som kan vara med dig."

// IsCrisisText reports whether text contains any crisis phrase, case-insensitively.
func IsCrisisText(text string) bool {
	normalized := strings.ToLower(text)
	for _, keyword := range crisisKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// CrisisResponse is the fixed reply returned instead of a model completion.
func CrisisResponse() string {
	return crisisText
}

// Decision is the outcome of screening one message.
type Decision struct {
	Triggered bool
	Reply     string
}

// Screen checks text and, when triggered, carries the fixed reply.
func Screen(text string) Decision {
	if !IsCrisisText(text) {
		return Decision{}
	}
	return Decision{Triggered: true, Reply: crisisText}
}
