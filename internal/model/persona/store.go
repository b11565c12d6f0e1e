package persona

// Store exposes voice lookup for handlers and the prompt assembler.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Get(id string) Persona
}

// MemoryStore implements Store with an in-memory slice. It is read-only
// after construction and safe to share between requests.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the catalogue in registration order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by exact identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Get resolves id to a persona, falling back to the first registered one
// when id is empty or unknown. An empty store yields the zero Persona.
func (s *MemoryStore) Get(id string) Persona {
	if p, ok := s.FindByID(id); ok {
		return p
	}
	if len(s.items) == 0 {
		return Persona{}
	}
	return s.items[0]
}

var defaultStore = NewMemoryStore(Seed())

// Default returns the process-wide catalogue built from Seed.
func Default() *MemoryStore {
	return defaultStore
}

// GetVoice resolves id against the default catalogue.
func GetVoice(id string) Persona {
	return defaultStore.Get(id)
}
