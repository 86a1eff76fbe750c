package graph

import gocache "github.com/patrickmn/go-cache"

// HasCycles reports whether any cycle is reachable from start. DFS with an
// on-stack ("visiting") set distinguishes back-edges from diamonds: a node
// reached twice through different branches is not a cycle unless it is
// still on the recursion stack.
func (g *Graph) HasCycles(start string) bool {
	from := g.start(start)
	key := "cycles:" + from
	if cached, ok := g.cache.Get(key); ok {
		return cached.(bool)
	}

	visited := map[string]bool{}
	onStack := map[string]bool{}
	result := g.cycleFrom(from, visited, onStack)

	g.cache.Set(key, result, gocache.DefaultExpiration)
	return result
}

func (g *Graph) cycleFrom(id string, visited, onStack map[string]bool) bool {
	node := g.nodes[id]
	if node == nil {
		return false
	}
	if onStack[id] {
		return true
	}
	if visited[id] {
		return false
	}
	visited[id] = true
	onStack[id] = true
	for i := range node.Outlets {
		if g.cycleFrom(node.Outlets[i].To, visited, onStack) {
			return true
		}
	}
	onStack[id] = false
	return false
}
