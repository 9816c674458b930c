package recommend

// =============================================================================
// RANKING MODEL - Least-squares smoothing of the policy score
// =============================================================================
//
// Fits preference_score ~ a + b*day_of_year + c*team_workload over the whole
// year, then predicts a score for every day from the same inputs. The model
// is a deliberate smoothing layer over a sparse rule-based score: days that
// matched no policy still get ordered sensibly relative to similar days. It
// only needs a stable relative ordering, not forecast accuracy.
//
// The 3x3 normal equations are solved directly with Gaussian elimination.
// A near-zero pivot (constant feature, e.g. a workload column that is all
// zeros) drops that term instead of blowing up.

type ranker struct {
	intercept float64
	byDOY     float64
	byLoad    float64
}

// fitRanker computes the least-squares coefficients over the feature table.
func fitRanker(days []Day) ranker {
	n := float64(len(days))
	if n == 0 {
		return ranker{}
	}

	// Accumulate X'X and X'y for X = [1, day_of_year, team_workload].
	var sx1, sx2, sx1x1, sx1x2, sx2x2, sy, sx1y, sx2y float64
	for _, d := range days {
		x1 := float64(d.DayOfYear)
		x2 := float64(d.TeamWorkload)
		y := d.PreferenceScore
		sx1 += x1
		sx2 += x2
		sx1x1 += x1 * x1
		sx1x2 += x1 * x2
		sx2x2 += x2 * x2
		sy += y
		sx1y += x1 * y
		sx2y += x2 * y
	}

	m := [3][4]float64{
		{n, sx1, sx2, sy},
		{sx1, sx1x1, sx1x2, sx1y},
		{sx2, sx1x2, sx2x2, sx2y},
	}
	sol := solve3(m)
	return ranker{intercept: sol[0], byDOY: sol[1], byLoad: sol[2]}
}

func (r ranker) predict(dayOfYear, workload int) float64 {
	return r.intercept + r.byDOY*float64(dayOfYear) + r.byLoad*float64(workload)
}

// solve3 runs Gaussian elimination with partial pivoting on a 3x4 augmented
// matrix. Singular pivots zero out the corresponding coefficient.
func solve3(m [3][4]float64) [3]float64 {
	const eps = 1e-12

	for col := 0; col < 3; col++ {
		// Pivot: largest magnitude in this column.
		pivot := col
		for row := col + 1; row < 3; row++ {
			if abs(m[row][col]) > abs(m[pivot][col]) {
				pivot = row
			}
		}
		m[col], m[pivot] = m[pivot], m[col]

		if abs(m[col][col]) < eps {
			continue
		}
		for row := 0; row < 3; row++ {
			if row == col {
				continue
			}
			f := m[row][col] / m[col][col]
			for k := col; k < 4; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	var out [3]float64
	for i := 0; i < 3; i++ {
		if abs(m[i][i]) < eps {
			out[i] = 0
			continue
		}
		out[i] = m[i][3] / m[i][i]
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
