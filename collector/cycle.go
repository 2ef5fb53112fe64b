package collector

// CycleInfo describes why a Sort pass stalled: which tables could not be
// placed, which of those actually form a cycle, and one concrete cycle
// path for the log message.
type CycleInfo struct {
	TotalTables   int      // tables known to the collector
	PlacedTables  int      // tables placed before the stall
	StalledTables []string // tables that could not be placed
	Participants  []string // stalled tables that sit on a dependency cycle
	CyclePath     []string // one cycle, start table repeated at the end
}

// diagnose inspects the dependency graph after a stalled sort pass. Tables
// absent from placed are either on a cycle or blocked behind one (or
// depend on a table that was never tracked).
func (c *Collector) diagnose(placed map[string]struct{}) *CycleInfo {
	var stalled []string
	for _, table := range c.data.Keys() {
		if _, done := placed[table]; !done {
			stalled = append(stalled, table)
		}
	}

	stalledSet := make(map[string]struct{}, len(stalled))
	for _, table := range stalled {
		stalledSet[table] = struct{}{}
	}

	var participants []string
	for _, table := range stalled {
		if c.reachesSelf(table, stalledSet) {
			participants = append(participants, table)
		}
	}

	var path []string
	if len(participants) > 0 {
		path = c.cyclePath(participants[0], stalledSet)
	}

	return &CycleInfo{
		TotalTables:   c.data.Len(),
		PlacedTables:  len(placed),
		StalledTables: stalled,
		Participants:  participants,
		CyclePath:     path,
	}
}

// reachesSelf reports whether start can reach itself by following
// dependency edges through the allowed set.
func (c *Collector) reachesSelf(start string, allowed map[string]struct{}) bool {
	visited := make(map[string]struct{})
	var walk func(current string) bool
	walk = func(current string) bool {
		for dep := range c.dependencies[current] {
			if dep == start {
				return true
			}
			if _, ok := allowed[dep]; !ok {
				continue
			}
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			if walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(start)
}

// cyclePath returns one dependency path from start back to itself within
// the allowed set, with start repeated at both ends, or nil when start is
// not on a cycle.
func (c *Collector) cyclePath(start string, allowed map[string]struct{}) []string {
	visited := make(map[string]struct{})
	path := []string{start}

	var walk func(current string) bool
	walk = func(current string) bool {
		for dep := range c.dependencies[current] {
			if dep == start {
				path = append(path, start)
				return true
			}
			if _, ok := allowed[dep]; !ok {
				continue
			}
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			path = append(path, dep)
			if walk(dep) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	if walk(start) {
		return path
	}
	return nil
}

// Stalled runs the sort selection without mutating the collector and
// returns a diagnosis when the current graph cannot be fully ordered, or
// nil when it can. Used for inspection ahead of an actual Sort.
func (c *Collector) Stalled() *CycleInfo {
	tables := c.data.Keys()
	placed := make(map[string]struct{}, len(tables))
	for len(placed) < len(tables) {
		progress := false
		for _, table := range tables {
			if _, done := placed[table]; done {
				continue
			}
			satisfied := true
			for dep := range c.dependencies[table] {
				if _, done := placed[dep]; !done {
					satisfied = false
					break
				}
			}
			if satisfied {
				placed[table] = struct{}{}
				progress = true
			}
		}
		if !progress {
			return c.diagnose(placed)
		}
	}
	return nil
}
