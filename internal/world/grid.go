package world

// Cell is a single tile of the grid world.
type Cell struct {
	X          int            `json:"x"`
	Y          int            `json:"y"`
	Terrain    TerrainType    `json:"terrain"`
	Resources  []ResourceType `json:"resources"`
	Discovered bool           `json:"discovered"`
	VisitCount int            `json:"visit_count"`
}

// Dangerous reports whether the cell's terrain is hazardous.
func (c *Cell) Dangerous() bool {
	return c.Terrain.Dangerous()
}

// AddResource places a resource in the cell.
func (c *Cell) AddResource(r ResourceType) {
	c.Resources = append(c.Resources, r)
}

// Collect removes one unit of the resource from the cell.
// Returns false if the resource is not present.
func (c *Cell) Collect(r ResourceType) bool {
	for i, have := range c.Resources {
		if have == r {
			c.Resources = append(c.Resources[:i], c.Resources[i+1:]...)
			return true
		}
	}
	return false
}

// Grid is the 2D tile world the agent navigates.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	cells [][]*Cell
}

// NewGrid creates an empty grid of plains cells.
func NewGrid(width, height int) *Grid {
	g := &Grid{Width: width, Height: height}
	g.cells = make([][]*Cell, height)
	for y := 0; y < height; y++ {
		g.cells[y] = make([]*Cell, width)
		for x := 0; x < width; x++ {
			g.cells[y][x] = &Cell{X: x, Y: y, Terrain: TerrainPlains}
		}
	}
	return g
}

// Valid reports whether the coordinate lies inside the grid.
func (g *Grid) Valid(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Cell returns the cell at (x, y), or nil if out of bounds.
func (g *Grid) Cell(x, y int) *Cell {
	if !g.Valid(x, y) {
		return nil
	}
	return g.cells[y][x]
}

// At returns the cell at the coordinate, or nil if out of bounds.
func (g *Grid) At(c Coord) *Cell {
	return g.Cell(c.X, c.Y)
}

// Neighbors returns the in-bounds neighboring cells keyed by direction.
func (g *Grid) Neighbors(x, y int) map[Direction]*Cell {
	n := make(map[Direction]*Cell, 4)
	for _, d := range Directions {
		c := Coord{X: x, Y: y}.Step(d)
		if cell := g.At(c); cell != nil {
			n[d] = cell
		}
	}
	return n
}

// Each visits every cell in row-major order.
func (g *Grid) Each(fn func(cell *Cell)) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			fn(g.cells[y][x])
		}
	}
}

// DiscoveredCount returns how many cells the agent has uncovered.
func (g *Grid) DiscoveredCount() int {
	count := 0
	g.Each(func(c *Cell) {
		if c.Discovered {
			count++
		}
	})
	return count
}

// CellCount returns the total number of cells.
func (g *Grid) CellCount() int {
	return g.Width * g.Height
}

// Export returns a flat copy of all cells for persistence.
func (g *Grid) Export() []Cell {
	out := make([]Cell, 0, g.CellCount())
	g.Each(func(c *Cell) {
		cp := *c
		cp.Resources = append([]ResourceType(nil), c.Resources...)
		out = append(out, cp)
	})
	return out
}

// Restore rebuilds a grid from exported cells. Cells outside the
// stated dimensions are dropped.
func Restore(width, height int, cells []Cell) *Grid {
	g := NewGrid(width, height)
	for i := range cells {
		c := cells[i]
		if !g.Valid(c.X, c.Y) {
			continue
		}
		cp := c
		cp.Resources = append([]ResourceType(nil), c.Resources...)
		g.cells[c.Y][c.X] = &cp
	}
	return g
}
