package graph

import (
	gocache "github.com/patrickmn/go-cache"
)

// Reachable returns every node id reachable from start (default: the
// flow's start node) via BFS, including start itself. The result is cached;
// callers receive a copy.
func (g *Graph) Reachable(start string) []string {
	from := g.start(start)
	key := "reach:" + from
	if cached, ok := g.cache.Get(key); ok {
		return append([]string(nil), cached.([]string)...)
	}

	visited := map[string]bool{}
	var order []string
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		visited[id] = true
		order = append(order, id)
		for i := range node.Outlets {
			if !visited[node.Outlets[i].To] {
				queue = append(queue, node.Outlets[i].To)
			}
		}
	}

	g.cache.Set(key, order, gocache.DefaultExpiration)
	return append([]string(nil), order...)
}

// IsReachable reports whether target can be reached from start. Uncached,
// early-exit BFS.
func (g *Graph) IsReachable(target, start string) bool {
	from := g.start(start)
	if from == target {
		return g.nodes[target] != nil
	}

	visited := map[string]bool{}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		visited[id] = true
		for i := range node.Outlets {
			to := node.Outlets[i].To
			if to == target {
				return g.nodes[target] != nil
			}
			if !visited[to] {
				queue = append(queue, to)
			}
		}
	}
	return false
}

// Unreachable returns nodes not reachable from the flow's start node, in
// declaration order.
func (g *Graph) Unreachable() []string {
	reachable := map[string]bool{}
	for _, id := range g.Reachable("") {
		reachable[id] = true
	}
	var out []string
	for i := range g.def.Nodes {
		if !reachable[g.def.Nodes[i].ID] {
			out = append(out, g.def.Nodes[i].ID)
		}
	}
	return out
}

// NodeDepths returns the BFS level of each reachable node relative to
// start. Cached; callers receive a copy.
func (g *Graph) NodeDepths(start string) map[string]int {
	from := g.start(start)
	key := "depths:" + from
	if cached, ok := g.cache.Get(key); ok {
		return copyDepths(cached.(map[string]int))
	}

	depths := map[string]int{}
	if g.nodes[from] != nil {
		depths[from] = 0
		queue := []string{from}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			node := g.nodes[id]
			if node == nil {
				continue
			}
			for i := range node.Outlets {
				to := node.Outlets[i].To
				if _, seen := depths[to]; !seen && g.nodes[to] != nil {
					depths[to] = depths[id] + 1
					queue = append(queue, to)
				}
			}
		}
	}

	g.cache.Set(key, depths, gocache.DefaultExpiration)
	return copyDepths(depths)
}

// MaxDepth returns the longest acyclic descent from start. Cycles truncate
// at the already-visited node; the walk always terminates.
func (g *Graph) MaxDepth(start string) int {
	from := g.start(start)
	if g.nodes[from] == nil {
		return 0
	}
	visited := map[string]bool{}
	return g.depthFrom(from, visited)
}

func (g *Graph) depthFrom(id string, visited map[string]bool) int {
	node := g.nodes[id]
	if node == nil || visited[id] {
		return 0
	}
	visited[id] = true
	defer delete(visited, id)

	max := 0
	for i := range node.Outlets {
		if d := g.depthFrom(node.Outlets[i].To, visited); d > max {
			max = d
		}
	}
	return max + 1
}

func copyDepths(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
