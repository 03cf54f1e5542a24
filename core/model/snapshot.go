package model

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time, read-only copy of fleet and station state.
// The optimizer never mutates a snapshot; it solves against it and commits
// reservations separately.
type Snapshot struct {
	Epoch    uint64    `json:"epoch"`
	Taken    time.Time `json:"taken"`
	Vehicles []Vehicle `json:"vehicles"`
	Stations []Station `json:"stations"`
}

// Validate checks the snapshot for structural defects. Empty vehicle or
// station sets are valid: an empty solve yields an empty result, not an
// error.
func (s Snapshot) Validate() error {
	vids := make(map[string]struct{}, len(s.Vehicles))
	for _, v := range s.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
		if _, dup := vids[v.ID]; dup {
			return fmt.Errorf("duplicate vehicle id %s", v.ID)
		}
		vids[v.ID] = struct{}{}
	}
	sids := make(map[string]struct{}, len(s.Stations))
	slotHolder := make(map[string]string)
	for _, st := range s.Stations {
		if err := st.Validate(); err != nil {
			return err
		}
		if _, dup := sids[st.ID]; dup {
			return fmt.Errorf("duplicate station id %s", st.ID)
		}
		sids[st.ID] = struct{}{}
		for _, occ := range st.Occupied {
			if other, held := slotHolder[occ]; held {
				return fmt.Errorf("vehicle %s occupies both %s and %s", occ, other, st.ID)
			}
			slotHolder[occ] = st.ID
		}
	}
	return nil
}
