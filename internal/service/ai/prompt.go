package ai

import (
	"strings"

	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/model/persona"
)

const (
	productFraming   = "Sortify är ett reflektionsverktyg, inte terapi eller krisinsats. Svara alltid på svenska."
	sessionStructure = "Sessionsstruktur: öppning, utforskning, fördjupning, syntes, avslutning."
	conversationRule = "Regler: ställ en fråga i taget, undvik långa monologer, undvik medicinsk eller juridisk rådgivning."
	transcriptHeader = "Transkription:"
)

var formatInstructions = map[chat.TakeawayFormat]string{
	chat.FormatLetter:       "Skriv ett kort stödjande brev till sig själv i första person.",
	chat.FormatRealizations: "Returnera 4–6 kortfattade punkter med viktiga insikter.",
	chat.FormatSteps:        "Returnera en kort handlingsplan med 3–5 konkreta nästa steg.",
}

// PromptManager assembles the text sent verbatim to the completion provider.
type PromptManager struct {
	personas   persona.Store
	directives map[string]string
}

// NewPromptManager creates a manager with the built-in voice directives.
func NewPromptManager(personas persona.Store) *PromptManager {
	return &PromptManager{
		personas: personas,
		directives: map[string]string{
			persona.Gentle:   "Röst: Mjuk. Varm, tålmodig, bekräftande. Ställ en reflekterande fråga i taget. Håll språket lugnt och tryggt.",
			persona.Grounded: "Röst: Jordad. Tydlig och direkt. Spegla användarens poäng kort, ställ sedan en precis klargörande fråga.",
			persona.Coach:    "Röst: Coach. Praktisk och handlingsinriktad. Håll momentum och avsluta med konkreta nästa steg när det passar.",
		},
	}
}

// BuildChatSystemPrompt returns the system instructions for one voice.
// Unknown voices resolve to the default voice.
func (pm *PromptManager) BuildChatSystemPrompt(voiceID string) string {
	voice := pm.personas.Get(voiceID)
	return strings.Join([]string{
		productFraming,
		pm.directives[voice.ID],
		sessionStructure,
		conversationRule,
	}, "\n")
}

// BuildTakeawayPrompt returns the single user prompt for a takeaway.
// Unknown formats use the steps instruction.
func (pm *PromptManager) BuildTakeawayPrompt(voiceID string, format chat.TakeawayFormat, messages []chat.Message) string {
	return strings.Join([]string{
		pm.BuildChatSystemPrompt(voiceID),
		"Sammanfattningsformat: " + string(format) + ". " + FormatInstruction(format),
		transcriptHeader,
		Transcript(messages),
	}, "\n\n")
}

// Transcript serializes messages as "<Label>: <content>" lines.
func Transcript(messages []chat.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Role.Label()+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatInstruction returns the fixed instruction text of a format. Unknown
// formats use the steps instruction.
func FormatInstruction(format chat.TakeawayFormat) string {
	if instruction, ok := formatInstructions[format]; ok {
		return instruction
	}
	return formatInstructions[chat.FormatSteps]
}
