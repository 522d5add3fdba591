package schedule

import "context"

// MemoryStore serves a fixed set of participants, e.g. fixture data.
type MemoryStore struct {
	participants []Participant
}

func NewMemoryStore(participants []Participant) *MemoryStore {
	return &MemoryStore{participants: cloneAll(participants)}
}

func (s *MemoryStore) Participants(_ context.Context) ([]Participant, error) {
	return cloneAll(s.participants), nil
}
