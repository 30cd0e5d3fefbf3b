package flock

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

type cellKey struct {
	x, y, z int
}

// SpatialGrid buckets agents into uniform cubic cells so that a neighbor
// query only visits the cells overlapping the perception sphere.
// It is rebuilt once per tick, before the parallel phase, and is read only
// while the batches run.
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]int32
}

// NewSpatialGrid creates an empty grid with the given cell size.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: math.Max(cellSize, 1e-3),
		cells:    make(map[cellKey][]int32),
	}
}

// CellSize returns the edge length of a cell.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Rebuild re-buckets every position. Cells occupied on the previous
// rebuild are truncated so their capacity is reused; cells left empty by it
// are dropped, so the map never holds more than the cells of two
// consecutive ticks.
func (g *SpatialGrid) Rebuild(positions []mgl64.Vec3, cellSize float64) {
	cellSize = math.Max(cellSize, 1e-3)
	if cellSize != g.cellSize {
		g.cellSize = cellSize
		clear(g.cells)
	}
	for k, bucket := range g.cells {
		if len(bucket) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = bucket[:0]
	}
	for i, p := range positions {
		key := g.key(p)
		g.cells[key] = append(g.cells[key], int32(i))
	}
}

func (g *SpatialGrid) key(p mgl64.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(p[0] / g.cellSize)),
		y: int(math.Floor(p[1] / g.cellSize)),
		z: int(math.Floor(p[2] / g.cellSize)),
	}
}

// Candidates appends to dst the indices of every agent whose cell overlaps
// the sphere of the given radius around p, sorted ascending.
func (g *SpatialGrid) Candidates(dst []int32, p mgl64.Vec3, radius float64) []int32 {
	lo := g.key(p.Sub(mgl64.Vec3{radius, radius, radius}))
	hi := g.key(p.Add(mgl64.Vec3{radius, radius, radius}))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				if bucket, ok := g.cells[cellKey{x, y, z}]; ok {
					dst = append(dst, bucket...)
				}
			}
		}
	}
	slices.Sort(dst)
	return dst
}

// Aggregate is the grid-accelerated form of Aggregate. Candidates are
// accumulated in ascending index order, the same order as the full scan,
// so both forms produce identical floating point sums. buf is scratch space
// reused across calls by the same goroutine.
func (g *SpatialGrid) Aggregate(i int, positions, velocities []mgl64.Vec3, p Perception, buf []int32) (Neighborhood, []int32) {
	var n Neighborhood
	buf = g.Candidates(buf[:0], positions[i], p.Detect)
	forward := geometry.Normalize(velocities[i])
	for _, j := range buf {
		if int(j) == i {
			continue
		}
		n.accumulate(positions[i], forward, positions[j], velocities[j], p)
	}
	return n, buf
}
