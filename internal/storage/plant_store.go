package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// PlantStore owns the insertion-ordered plant collection. Every record
// crossing its boundary is a deep copy.
type PlantStore struct {
	plants []types.Plant
	lastID int
	now    func() time.Time
	mu     sync.RWMutex
}

func NewPlantStore(initial []types.Plant) (*PlantStore, error) {
	s := &PlantStore{
		plants: make([]types.Plant, 0, len(initial)),
		now:    func() time.Time { return time.Now().UTC() },
	}

	seen := make(map[int]struct{}, len(initial))
	for _, p := range initial {
		if p.ID <= 0 {
			return nil, fmt.Errorf("plant %q: id must be positive", p.Infra.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plant id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		s.plants = append(s.plants, p.Clone())
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
	}

	return s, nil
}

func (s *PlantStore) List() []types.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Plant, len(s.plants))
	for i, p := range s.plants {
		out[i] = p.Clone()
	}
	return out
}

func (s *PlantStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plants)
}

func (s *PlantStore) Get(id int) (types.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return types.Plant{}, types.NotFound("plant", id)
	}
	return s.plants[i].Clone(), nil
}

// Exists is a cheap membership check used when linking RTUs.
func (s *PlantStore) Exists(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(id) >= 0
}

// Create allocates the next id and stores the plant built from in. Ids
// come from a high-water mark, so deleting the newest plant never frees
// its id for reuse.
func (s *PlantStore) Create(in types.PlantPatch) (types.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plant, err := types.NewPlant(s.lastID+1, in, s.now())
	if err != nil {
		return types.Plant{}, err
	}

	s.lastID = plant.ID
	s.plants = append(s.plants, plant)
	return plant.Clone(), nil
}

// Update merges patch into the stored plant and returns the record as it
// was before and after. Nothing is applied when the id is unknown or the
// patch is invalid.
func (s *PlantStore) Update(id int, patch types.PlantPatch) (before, after types.Plant, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return types.Plant{}, types.Plant{}, types.NotFound("plant", id)
	}
	if err := patch.Validate(); err != nil {
		return types.Plant{}, types.Plant{}, err
	}

	before = s.plants[i].Clone()
	s.plants[i] = patch.Apply(s.plants[i], s.now())
	return before, s.plants[i].Clone(), nil
}

func (s *PlantStore) Delete(id int) (types.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return types.Plant{}, types.NotFound("plant", id)
	}

	removed := s.plants[i]
	s.plants = append(s.plants[:i], s.plants[i+1:]...)
	return removed, nil
}

func (s *PlantStore) index(id int) int {
	for i := range s.plants {
		if s.plants[i].ID == id {
			return i
		}
	}
	return -1
}
