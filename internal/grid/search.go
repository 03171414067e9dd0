package grid

import "container/heap"

// ClosestTile runs a breadth-first search outward from start and returns the first
// tile accepted by accept. Ties are broken by visit order (up, right, down, left).
// Walls and closed doors are not expanded, so the result is reachable on foot.
func (s *State) ClosestTile(start Coordinate, accept func(Coordinate) bool) (Coordinate, bool) {
	if !s.InBounds(start) {
		return Coordinate{}, false
	}
	visited := map[Coordinate]struct{}{start: {}}
	queue := []Coordinate{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if s.IsTraversable(current) && accept(current) {
			return current, true
		}
		for _, n := range s.Neighbors(current) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			if !s.IsTraversable(n) {
				continue
			}
			queue = append(queue, n)
		}
	}
	return Coordinate{}, false
}

// PathOptions tunes the movement cost model.
type PathOptions struct {
	// Blocked reports tiles that cannot be entered, typically occupied ones.
	Blocked func(Coordinate) bool
	// AllowBlockedGoal lets a path end on a blocked tile (e.g. an enemy's tile).
	AllowBlockedGoal bool
	// DoorsPassable treats closed doors as open doors for planning.
	DoorsPassable bool
}

type Path struct {
	Tiles []Coordinate `json:"tiles"`
	Cost  int          `json:"cost"`
}

// Len is the number of steps, the starting tile excluded.
func (p Path) Len() int {
	if len(p.Tiles) == 0 {
		return 0
	}
	return len(p.Tiles) - 1
}

func (s *State) enterCost(c Coordinate, opts PathOptions) (int, bool) {
	t := s.At(c)
	if t == nil {
		return 0, false
	}
	if t.IsTraversable {
		return t.TileCost, true
	}
	if t.IsDoor && opts.DoorsPassable {
		return tileTable[MaterialOpenDoor].TileCost, true
	}
	return 0, false
}

// PathCost sums the cost of entering every tile of path after the first one.
func (s *State) PathCost(path []Coordinate) (int, bool) {
	total := 0
	for i := 1; i < len(path); i++ {
		if !Adjacent(path[i-1], path[i]) {
			return 0, false
		}
		cost, ok := s.enterCost(path[i], PathOptions{})
		if !ok {
			return 0, false
		}
		total += cost
	}
	return total, true
}

type searchNode struct {
	at    Coordinate
	cost  int
	steps int
	seq   int
	index int
}

type searchQueue []*searchNode

func (q searchQueue) Len() int { return len(q) }

func (q searchQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].steps != q[j].steps {
		return q[i].steps < q[j].steps
	}
	return q[i].seq < q[j].seq
}

func (q searchQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *searchQueue) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

type searchResult struct {
	cost   map[Coordinate]int
	parent map[Coordinate]Coordinate
}

// dijkstra explores from start. Tile costs vary (ice is free) so plain BFS is not enough.
// A negative budget means unbounded. Ties prefer fewer steps, then discovery order.
func (s *State) dijkstra(start Coordinate, budget int, goal *Coordinate, opts PathOptions) searchResult {
	res := searchResult{
		cost:   map[Coordinate]int{start: 0},
		parent: map[Coordinate]Coordinate{},
	}
	steps := map[Coordinate]int{start: 0}
	done := map[Coordinate]struct{}{}
	seq := 0
	open := &searchQueue{}
	heap.Push(open, &searchNode{at: start})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if _, ok := done[current.at]; ok {
			continue
		}
		done[current.at] = struct{}{}
		if goal != nil && current.at == *goal {
			break
		}
		// a path may end on a blocked goal but never continue through it
		if current.at != start && opts.Blocked != nil && opts.Blocked(current.at) {
			continue
		}
		for _, n := range s.Neighbors(current.at) {
			if _, ok := done[n]; ok {
				continue
			}
			enter, ok := s.enterCost(n, opts)
			if !ok {
				continue
			}
			if opts.Blocked != nil && opts.Blocked(n) {
				if goal == nil || n != *goal || !opts.AllowBlockedGoal {
					continue
				}
			}
			total := current.cost + enter
			if budget >= 0 && total > budget {
				continue
			}
			prev, seen := res.cost[n]
			if seen && (total > prev || (total == prev && current.steps+1 >= steps[n])) {
				continue
			}
			res.cost[n] = total
			steps[n] = current.steps + 1
			res.parent[n] = current.at
			seq++
			heap.Push(open, &searchNode{at: n, cost: total, steps: current.steps + 1, seq: seq})
		}
	}
	return res
}

// Reachable returns every tile reachable from start within budget, with its minimal cost.
// The start tile is included at cost 0.
func (s *State) Reachable(start Coordinate, budget int, blocked func(Coordinate) bool) map[Coordinate]int {
	if !s.InBounds(start) {
		return map[Coordinate]int{}
	}
	return s.dijkstra(start, budget, nil, PathOptions{Blocked: blocked}).cost
}

// ShortestPath returns the minimal-cost path from start to goal, both included.
func (s *State) ShortestPath(start, goal Coordinate, opts PathOptions) (Path, bool) {
	if !s.InBounds(start) || !s.InBounds(goal) {
		return Path{}, false
	}
	if start == goal {
		return Path{Tiles: []Coordinate{start}}, true
	}
	res := s.dijkstra(start, -1, &goal, opts)
	cost, ok := res.cost[goal]
	if !ok {
		return Path{}, false
	}
	tiles := []Coordinate{goal}
	for at := goal; at != start; {
		at = res.parent[at]
		tiles = append(tiles, at)
	}
	for i, j := 0, len(tiles)-1; i < j; i, j = i+1, j-1 {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
	return Path{Tiles: tiles, Cost: cost}, true
}
