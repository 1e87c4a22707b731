package main

import (
	"math"
	"slices"
)

const (
	SpatialCellSize = 8.0 // 2x the largest asteroid radius
	SpatialCols     = int(WorldWidth / SpatialCellSize)
	SpatialRows     = int(WorldHeight / SpatialCellSize)
)

// SpatialGrid is a fixed-size broad-phase grid. Cell indices wrap on both
// axes so queries near an edge see entities just across it.
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]int
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func wrapCell(c, n int) int {
	c %= n
	if c < 0 {
		c += n
	}
	return c
}

func cellCoord(v float64) int {
	return int(math.Floor(v / SpatialCellSize))
}

// Insert adds an entity index at the given position
func (g *SpatialGrid) Insert(p Vec2, idx int) {
	cx := wrapCell(cellCoord(p.X), SpatialCols)
	cy := wrapCell(cellCoord(p.Y), SpatialRows)
	i := cy*SpatialCols + cx
	g.cells[i] = append(g.cells[i], idx)
}

// QueryBuf appends every index in cells overlapping the box of the given
// radius around p, visiting each cell at most once
func (g *SpatialGrid) QueryBuf(p Vec2, radius float64, buf []int) []int {
	minCX, maxCX := cellCoord(p.X-radius), cellCoord(p.X+radius)
	minCY, maxCY := cellCoord(p.Y-radius), cellCoord(p.Y+radius)
	nx := min(maxCX-minCX+1, SpatialCols)
	ny := min(maxCY-minCY+1, SpatialRows)
	for dy := 0; dy < ny; dy++ {
		cy := wrapCell(minCY+dy, SpatialRows)
		for dx := 0; dx < nx; dx++ {
			cx := wrapCell(minCX+dx, SpatialCols)
			buf = append(buf, g.cells[cy*SpatialCols+cx]...)
		}
	}
	return buf
}

// QuerySorted is QueryBuf with the result in ascending index order, so
// callers that stop at the first hit agree with a plain linear scan
func (g *SpatialGrid) QuerySorted(p Vec2, radius float64, buf []int) []int {
	buf = g.QueryBuf(p, radius, buf)
	slices.Sort(buf)
	return buf
}
