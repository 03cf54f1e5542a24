package model

import "fmt"

// Station represents a charging station with a fixed number of slots.
type Station struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Capacity int      `json:"capacity"`

	// Occupied lists the vehicle IDs currently holding a slot.
	Occupied []string `json:"occupied,omitempty"`
}

// Free returns the number of unoccupied slots.
func (s Station) Free() int {
	free := s.Capacity - len(s.Occupied)
	if free < 0 {
		return 0
	}
	return free
}

// LoadRatio returns occupied/capacity in [0,1].
func (s Station) LoadRatio() float64 {
	if s.Capacity <= 0 {
		return 1
	}
	return float64(len(s.Occupied)) / float64(s.Capacity)
}

// Validate checks that the station record is structurally sound.
func (s Station) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("station id is required")
	}
	if s.Capacity <= 0 {
		return fmt.Errorf("station %s: capacity must be positive", s.ID)
	}
	if !s.Position.Valid() {
		return fmt.Errorf("station %s: invalid position", s.ID)
	}
	if len(s.Occupied) > s.Capacity {
		return fmt.Errorf("station %s: %d occupants exceed capacity %d", s.ID, len(s.Occupied), s.Capacity)
	}
	seen := make(map[string]struct{}, len(s.Occupied))
	for _, id := range s.Occupied {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("station %s: duplicate occupant %s", s.ID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
