package persona

// Voice IDs in registration order.
const (
	Gentle   = "gentle"
	Grounded = "grounded"
	Coach    = "coach"
)

// Persona is a conversational voice the user can pick before chatting.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OpeningLine string `json:"opening"`
	StyleTag    string `json:"accentClass"`
}

// Seed returns the fixed voice catalogue. The first entry is the default.
func Seed() []Persona {
	return []Persona{
		{
			ID:          Gentle,
			Name:        "Mjuk",
			Description: "Varm, tålmodig och bekräftande.",
			OpeningLine: "Hej. Jag finns här, ingen brådska. Vad har legat och tyngt dig på sistone?",
			StyleTag:    "voice-card--gentle",
		},
		{
			ID:          Grounded,
			Name:        "Jordad",
			Description: "Direkt, lugn och tydlig.",
			OpeningLine: "Låt oss reda ut det här. Hur ser situationen ut just nu?",
			StyleTag:    "voice-card--grounded",
		},
		{
			ID:          Coach,
			Name:        "Coach",
			Description: "Handlingsinriktad och praktisk.",
			OpeningLine: "Låt oss jobba igenom det här. Vilken utmaning står du inför idag?",
			StyleTag:    "voice-card--coach",
		},
	}
}

// IDs lists the registered voice identifiers in catalogue order.
func IDs() []string {
	return []string{Gentle, Grounded, Coach}
}
