package tui

import (
	"math"
	"sort"

	"github.com/kartoza/embedding-theatre/internal/plot"
	"gonum.org/v1/gonum/mat"
)

const (
	// focalLength sets the field of view of the terminal camera
	focalLength = 1.6
	// cellAspect is how much taller a terminal cell is than it is wide
	cellAspect = 2.0
	// nearPlane culls points at or behind the eye
	nearPlane = 0.05

	minEyeDistance = 0.6
	maxEyeDistance = 12.0
	maxElevation   = 89 * math.Pi / 180
)

// screenPoint is a projected point on the character grid
type screenPoint struct {
	col, row int
	depth    float64
	index    int
}

// normalizePoints scales every axis independently into [-1, 1], the way the
// 3D scene fits data into its cube. A flat axis collapses to 0.
func normalizePoints(points [][3]float64) *mat.Dense {
	n := len(points)
	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		data.SetRow(i, p[:])
	}

	for axis := 0; axis < 3; axis++ {
		col := mat.Col(nil, axis, data)
		lo, hi := col[0], col[0]
		for _, v := range col {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		mid, half := (lo+hi)/2, (hi-lo)/2
		for i, v := range col {
			if half == 0 {
				col[i] = 0
				continue
			}
			col[i] = (v - mid) / half
		}
		data.SetCol(axis, col)
	}
	return data
}

// cameraBasis returns the right, up and forward axes of a camera at eye
// looking at the origin with z up.
func cameraBasis(eye plot.Vec3) *mat.Dense {
	forward := normalize([3]float64{-eye.X, -eye.Y, -eye.Z})
	worldUp := [3]float64{0, 0, 1}
	if math.Abs(dot(forward, worldUp)) > 0.999 {
		worldUp = [3]float64{0, 1, 0}
	}
	right := normalize(cross(forward, worldUp))
	up := cross(right, forward)

	// Columns are the basis vectors so rows of (p - eye) * basis are camera
	// coordinates.
	basis := mat.NewDense(3, 3, nil)
	basis.SetCol(0, right[:])
	basis.SetCol(1, up[:])
	basis.SetCol(2, forward[:])
	return basis
}

// project maps points to a width x height grid as seen from eye. Points
// behind the camera or off the grid are dropped. The result is ordered far
// to near so nearer points are drawn last.
func project(points [][3]float64, eye plot.Vec3, width, height int) []screenPoint {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return nil
	}

	data := normalizePoints(points)
	n, _ := data.Dims()

	eyeRow := []float64{eye.X, eye.Y, eye.Z}
	for i := 0; i < n; i++ {
		row := data.RawRowView(i)
		for j := range row {
			row[j] -= eyeRow[j]
		}
	}

	var cam mat.Dense
	cam.Mul(data, cameraBasis(eye))

	centerCol := float64(width-1) / 2
	centerRow := float64(height-1) / 2
	unit := math.Min(centerRow, centerCol/cellAspect)

	projected := make([]screenPoint, 0, n)
	for i := 0; i < n; i++ {
		x, y, depth := cam.At(i, 0), cam.At(i, 1), cam.At(i, 2)
		if depth <= nearPlane {
			continue
		}
		sx := x / depth * focalLength
		sy := y / depth * focalLength

		col := int(math.Round(centerCol + sx*unit*cellAspect))
		row := int(math.Round(centerRow - sy*unit))
		if col < 0 || col >= width || row < 0 || row >= height {
			continue
		}
		projected = append(projected, screenPoint{col: col, row: row, depth: depth, index: i})
	}

	sort.SliceStable(projected, func(a, b int) bool {
		return projected[a].depth > projected[b].depth
	})
	return projected
}

// orbit rotates eye around the origin by the given azimuth and elevation
// deltas in radians, keeping its distance.
func orbit(eye plot.Vec3, dAzimuth, dElevation float64) plot.Vec3 {
	r := math.Sqrt(eye.X*eye.X + eye.Y*eye.Y + eye.Z*eye.Z)
	if r == 0 {
		return plot.DefaultEye
	}
	azimuth := math.Atan2(eye.Y, eye.X) + dAzimuth
	elevation := math.Asin(eye.Z/r) + dElevation
	elevation = math.Max(-maxElevation, math.Min(maxElevation, elevation))

	return plot.Vec3{
		X: r * math.Cos(elevation) * math.Cos(azimuth),
		Y: r * math.Cos(elevation) * math.Sin(azimuth),
		Z: r * math.Sin(elevation),
	}
}

// zoom moves eye towards (factor < 1) or away from the origin
func zoom(eye plot.Vec3, factor float64) plot.Vec3 {
	r := math.Sqrt(eye.X*eye.X + eye.Y*eye.Y + eye.Z*eye.Z)
	if r == 0 {
		return plot.DefaultEye
	}
	target := math.Max(minEyeDistance, math.Min(maxEyeDistance, r*factor))
	scale := target / r
	return plot.Vec3{X: eye.X * scale, Y: eye.Y * scale, Z: eye.Z * scale}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float64) [3]float64 {
	norm := mat.Norm(mat.NewVecDense(3, v[:]), 2)
	if norm == 0 {
		return v
	}
	return [3]float64{v[0] / norm, v[1] / norm, v[2] / norm}
}
