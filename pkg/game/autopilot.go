package game

// reachLimit caps the flood fill on large boards
const reachLimit = 450

// BestMove computes the next direction for the snake when the autopilot is on.
// It scores every legal direction by the free space reachable from the next
// cell and by the distance to the apple.
func (g *Game) BestMove() Direction {
	head := g.Snake[0]
	snakeLen := len(g.Snake)

	bestDir := g.Direction
	bestScore := -1000000.0

	for _, dir := range Directions {
		// Prevent 180-degree turns
		if dir == g.Direction.Opposite() {
			continue
		}

		nextPos := head.Add(dir.Delta())
		if !g.isSafe(nextPos) {
			continue
		}

		reachableSpace := g.countReachableSpace(nextPos)
		score := float64(reachableSpace) * 50.0

		if reachableSpace < snakeLen {
			score -= 5000.0
		}

		distToApple := float64(abs(g.Apple.X-nextPos.X) + abs(g.Apple.Y-nextPos.Y))
		score += (100.0 - distToApple) * 2.0

		if nextPos == g.Apple {
			score += 1000.0
		}

		if score > bestScore {
			bestScore = score
			bestDir = dir
		}
	}

	return bestDir
}

// isSafe checks if a position is on the board and clear of the snake. The
// tail counts as body because collisions are checked before it moves.
func (g *Game) isSafe(p Point) bool {
	if !g.InBounds(p) {
		return false
	}
	for _, s := range g.Snake {
		if s == p {
			return false
		}
	}
	return true
}

// countReachableSpace uses a simple flood fill to count safe tiles
func (g *Game) countReachableSpace(start Point) int {
	visited := make(map[Point]bool)
	queue := []Point{start}
	visited[start] = true
	count := 0

	// Ignore the tail, it has moved on by the time the fill gets there
	occupied := make(map[Point]bool, len(g.Snake))
	for _, p := range g.Snake[:len(g.Snake)-1] {
		occupied[p] = true
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		count++

		if count > reachLimit {
			return count
		}

		for _, d := range Directions {
			next := curr.Add(d.Delta())
			if !g.InBounds(next) || occupied[next] || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return count
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
