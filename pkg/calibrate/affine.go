// Package calibrate fits the affine transform from game coordinates to the
// GIS coordinates of the map layers.
package calibrate

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"

	"witcherkg/pkg/kgerrors"
)

const stage = "calibrate"

// collinearTolerance is the smallest relative triangle area, against the
// squared extent of the points, that counts as non-collinear.
const collinearTolerance = 1e-9

// ControlPair ties a game coordinate to its GIS coordinate.
type ControlPair struct {
	Game orb.Point
	GIS  orb.Point
}

// Affine is a 2x3 matrix mapping (x, y) to (a*x + b*y + c, d*x + e*y + f).
type Affine [2][3]float64

// Fit solves the least-squares affine transform for pairs, one output axis
// at a time. It needs at least three pairs whose game coordinates are not
// collinear; anything else is a CalibrationFailure.
func Fit(pairs []ControlPair) (Affine, error) {
	if len(pairs) < 3 {
		return Affine{}, kgerrors.Newf(kgerrors.KindCalibrationFailure, stage, "",
			"need at least 3 control points, got %d", len(pairs))
	}
	if collinear(pairs) {
		return Affine{}, kgerrors.Newf(kgerrors.KindCalibrationFailure, stage, "",
			"control points are collinear")
	}

	n := len(pairs)
	design := mat.NewDense(n, 3, nil)
	xs := mat.NewVecDense(n, nil)
	ys := mat.NewVecDense(n, nil)
	for i, p := range pairs {
		design.SetRow(i, []float64{p.Game[0], p.Game[1], 1})
		xs.SetVec(i, p.GIS[0])
		ys.SetVec(i, p.GIS[1])
	}

	var m Affine
	for axis, target := range []*mat.VecDense{xs, ys} {
		var params mat.VecDense
		if err := params.SolveVec(design, target); err != nil {
			return Affine{}, kgerrors.New(kgerrors.KindCalibrationFailure, stage, "",
				fmt.Errorf("solve axis %d: %w", axis, err))
		}
		for j := 0; j < 3; j++ {
			v := params.AtVec(j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Affine{}, kgerrors.Newf(kgerrors.KindCalibrationFailure, stage, "",
					"solve axis %d: non-finite coefficient", axis)
			}
			m[axis][j] = v
		}
	}
	return m, nil
}

// collinear reports whether every game point lies on one line. The largest
// triangle spanned by the points is compared with their squared extent.
func collinear(pairs []ControlPair) bool {
	var bound orb.Bound
	for i, p := range pairs {
		if i == 0 {
			bound = orb.Bound{Min: p.Game, Max: p.Game}
			continue
		}
		bound = bound.Extend(p.Game)
	}
	dx, dy := bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1]
	extent := dx*dx + dy*dy
	if extent == 0 {
		return true
	}

	maxArea := 0.0
	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			for k := j + 1; k < len(pairs); k++ {
				a, b, c := pairs[i].Game, pairs[j].Game, pairs[k].Game
				area := math.Abs((b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0]))
				maxArea = math.Max(maxArea, area)
			}
		}
	}
	return maxArea/extent < collinearTolerance
}

// Transform applies the matrix to p as the homogeneous vector [x, y, 1].
func (m Affine) Transform(p orb.Point) orb.Point {
	return orb.Point{
		m[0][0]*p[0] + m[0][1]*p[1] + m[0][2],
		m[1][0]*p[0] + m[1][1]*p[1] + m[1][2],
	}
}

// Residual returns the largest distance between a transformed game point
// and its GIS counterpart.
func (m Affine) Residual(pairs []ControlPair) float64 {
	worst := 0.0
	for _, p := range pairs {
		q := m.Transform(p.Game)
		worst = math.Max(worst, math.Hypot(q[0]-p.GIS[0], q[1]-p.GIS[1]))
	}
	return worst
}
