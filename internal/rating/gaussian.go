package rating

import "math"

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPPF(p float64) float64 {
	return -math.Sqrt2 * math.Erfcinv(2*p)
}

// vWin is the additive mean correction for a truncated Gaussian when the
// winner's performance exceeded the loser's by more than margin.
func vWin(t, margin float64) float64 {
	x := t - margin
	denom := normCDF(x)
	if denom == 0 {
		return -x
	}
	return normPDF(x) / denom
}

// wWin is the multiplicative variance correction matching vWin.
func wWin(t, margin float64) float64 {
	x := t - margin
	denom := normCDF(x)
	if denom == 0 {
		if x < 0 {
			return 1
		}
		return 0
	}
	v := vWin(t, margin)
	return v * (v + x)
}
