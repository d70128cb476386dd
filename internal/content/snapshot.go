package content

import "time"

// Snapshot is an immutable, indexed view over one fetch of all collections.
type Snapshot struct {
	Collections
	FetchedAt time.Time

	fundsByID       map[string]*Fund
	fundsByCategory map[string][]string
	fundsByTag      map[string][]string
	fundsByManager  map[string][]string
	managersByID    map[string]*Manager
}

// NewSnapshot indexes c. The collections are not copied; callers must not
// mutate them afterwards.
func NewSnapshot(c Collections, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		Collections:     c,
		FetchedAt:       fetchedAt,
		fundsByID:       make(map[string]*Fund, len(c.Funds)),
		fundsByCategory: make(map[string][]string),
		fundsByTag:      make(map[string][]string),
		fundsByManager:  make(map[string][]string),
		managersByID:    make(map[string]*Manager, len(c.Managers)),
	}
	for i := range s.Funds {
		f := &s.Funds[i]
		if _, dup := s.fundsByID[f.ID]; dup {
			continue
		}
		s.fundsByID[f.ID] = f
		for _, id := range uniq(f.CategoryIDs) {
			s.fundsByCategory[id] = append(s.fundsByCategory[id], f.ID)
		}
		for _, id := range uniq(f.TagIDs) {
			s.fundsByTag[id] = append(s.fundsByTag[id], f.ID)
		}
		if f.ManagerID != "" {
			s.fundsByManager[f.ManagerID] = append(s.fundsByManager[f.ManagerID], f.ID)
		}
	}
	for i := range s.Managers {
		s.managersByID[s.Managers[i].ID] = &s.Managers[i]
	}
	return s
}

// Fund looks up a fund by id.
func (s *Snapshot) Fund(id string) (*Fund, bool) {
	f, ok := s.fundsByID[id]
	return f, ok
}

// Manager looks up a manager by id.
func (s *Snapshot) Manager(id string) (*Manager, bool) {
	m, ok := s.managersByID[id]
	return m, ok
}

// FundsInCategory returns the ids of funds assigned to a category, in snapshot order.
func (s *Snapshot) FundsInCategory(categoryID string) []string { return s.fundsByCategory[categoryID] }

// FundsWithTag returns the ids of funds carrying a tag, in snapshot order.
func (s *Snapshot) FundsWithTag(tagID string) []string { return s.fundsByTag[tagID] }

// FundsByManager returns the ids of funds managed by a manager, in snapshot order.
func (s *Snapshot) FundsByManager(managerID string) []string { return s.fundsByManager[managerID] }

// Counts returns the number of records per collection, keyed by collection name.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"funds":        len(s.Funds),
		"categories":   len(s.Categories),
		"tags":         len(s.Tags),
		"managers":     len(s.Managers),
		"team_members": len(s.TeamMembers),
		"comparisons":  len(s.Comparisons),
	}
}

func uniq(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
