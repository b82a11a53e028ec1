package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

const rtuIDLength = 8

// RTUStore owns the insertion-ordered RTU collection. Ids handed out by
// Create are short uuid tokens and are never issued twice, even after a
// delete.
type RTUStore struct {
	rtus   []types.RTU
	issued map[string]struct{}
	newID  func() string
	now    func() time.Time
	mu     sync.RWMutex
}

func NewRTUStore(initial []types.RTU) (*RTUStore, error) {
	s := &RTUStore{
		rtus:   make([]types.RTU, 0, len(initial)),
		issued: make(map[string]struct{}, len(initial)),
		newID:  func() string { return uuid.NewString()[:rtuIDLength] },
		now:    func() time.Time { return time.Now().UTC() },
	}

	for _, r := range initial {
		if r.ID == "" {
			return nil, fmt.Errorf("rtu %q: empty id", r.Name)
		}
		if _, dup := s.issued[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rtu id %q", r.ID)
		}
		s.issued[r.ID] = struct{}{}
		s.rtus = append(s.rtus, r.Clone())
	}

	return s, nil
}

func (s *RTUStore) List() []types.RTU {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.RTU, len(s.rtus))
	for i, r := range s.rtus {
		out[i] = r.Clone()
	}
	return out
}

func (s *RTUStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rtus)
}

func (s *RTUStore) Get(id string) (types.RTU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return types.RTU{}, types.NotFound("rtu", id)
	}
	return s.rtus[i].Clone(), nil
}

// ByPlant lists the RTUs linked to plantID.
func (s *RTUStore) ByPlant(plantID int) []types.RTU {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.RTU, 0)
	for _, r := range s.rtus {
		if r.PlantID != nil && *r.PlantID == plantID {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *RTUStore) Create(in types.RTUPatch) (types.RTU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.issued[id]; !taken {
			break
		}
		id = s.newID()
	}

	rtu, err := types.NewRTU(id, in, s.now())
	if err != nil {
		return types.RTU{}, err
	}

	s.issued[id] = struct{}{}
	s.rtus = append(s.rtus, rtu)
	return rtu.Clone(), nil
}

// Update applies patch field by field. The merged record must still be
// valid; otherwise the stored one is left untouched.
func (s *RTUStore) Update(id string, patch types.RTUPatch) (types.RTU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return types.RTU{}, types.NotFound("rtu", id)
	}

	merged := patch.Apply(s.rtus[i])
	merged.ID = id
	if err := merged.Validate(); err != nil {
		return types.RTU{}, err
	}

	s.rtus[i] = merged
	return merged.Clone(), nil
}

func (s *RTUStore) Delete(id string) (types.RTU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return types.RTU{}, types.NotFound("rtu", id)
	}

	removed := s.rtus[i]
	s.rtus = append(s.rtus[:i], s.rtus[i+1:]...)
	return removed, nil
}

// UnlinkPlant clears the plant reference of every RTU pointing at
// plantID and reports how many were touched.
func (s *RTUStore) UnlinkPlant(plantID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.rtus {
		if s.rtus[i].PlantID != nil && *s.rtus[i].PlantID == plantID {
			s.rtus[i].PlantID = nil
			s.rtus[i].PlantName = nil
			n++
		}
	}
	return n
}

func (s *RTUStore) index(id string) int {
	for i := range s.rtus {
		if s.rtus[i].ID == id {
			return i
		}
	}
	return -1
}
