// Package rating implements a two-team TrueSkill-style skill model: Gaussian
// beliefs (mu, sigma) per player, updated from win/loss results, plus the
// team win-probability estimate derived from the same performance model.
package rating

import (
	"fmt"
	"math"
)

// Rating is a Gaussian skill belief.
type Rating struct {
	Mu    float64
	Sigma float64
}

// Exposure is the conservative skill estimate mu - 3*sigma.
func (r Rating) Exposure() float64 { return r.Mu - 3*r.Sigma }

func (r Rating) String() string {
	return fmt.Sprintf("%.2f±%.2f", r.Mu, r.Sigma)
}

func (r Rating) mustFinite() {
	if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) || math.IsNaN(r.Sigma) || math.IsInf(r.Sigma, 0) || r.Sigma <= 0 {
		panic(fmt.Sprintf("rating: invalid rating %v/%v", r.Mu, r.Sigma))
	}
}

// Winner names the winning team of a two-team game. There is no draw.
type Winner int

const (
	WinnerA Winner = iota
	WinnerB
)

// Env holds the model parameters. They are fixed for one replay; ratings
// computed under different parameters are not comparable.
type Env struct {
	Mu              float64 // prior mean
	Sigma           float64 // prior standard deviation
	Beta            float64 // performance noise per player
	Tau             float64 // dynamics added before every update
	DrawProbability float64
}

// Default parameters: the classic 25 / 25/3 scale with no draws.
const (
	DefaultMu    = 25.0
	DefaultSigma = DefaultMu / 3
	DefaultBeta  = DefaultSigma / 2
	DefaultTau   = DefaultSigma / 100
)

// DefaultEnv returns the environment used for custom games.
func DefaultEnv() Env {
	return Env{Mu: DefaultMu, Sigma: DefaultSigma, Beta: DefaultBeta, Tau: DefaultTau}
}

// NewEnv validates and returns an environment.
func NewEnv(mu, sigma, beta, tau, drawProbability float64) (Env, error) {
	for name, v := range map[string]float64{"mu": mu, "sigma": sigma, "beta": beta, "tau": tau} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Env{}, fmt.Errorf("rating: %s must be finite, got %v", name, v)
		}
	}
	if sigma <= 0 || beta <= 0 || tau < 0 {
		return Env{}, fmt.Errorf("rating: sigma and beta must be positive and tau non-negative")
	}
	if drawProbability < 0 || drawProbability >= 1 {
		return Env{}, fmt.Errorf("rating: draw probability %v outside [0,1)", drawProbability)
	}
	return Env{Mu: mu, Sigma: sigma, Beta: beta, Tau: tau, DrawProbability: drawProbability}, nil
}

// CreateRating returns the prior belief for an unseen player.
func (e Env) CreateRating() Rating {
	return Rating{Mu: e.Mu, Sigma: e.Sigma}
}

// drawMargin converts the draw probability into a performance margin for a
// game with n players in total.
func (e Env) drawMargin(n int) float64 {
	if e.DrawProbability == 0 {
		return 0
	}
	return normPPF((e.DrawProbability+1)/2) * math.Sqrt(float64(n)) * e.Beta
}

// Rate updates both teams after a game won by winner. Team sizes may differ;
// each team must have at least one player. The inputs are not modified.
func (e Env) Rate(a, b []Rating, winner Winner) ([]Rating, []Rating) {
	if len(a) == 0 || len(b) == 0 {
		panic("rating: Rate needs two non-empty teams")
	}
	w, l := a, b
	if winner == WinnerB {
		w, l = b, a
	}

	tau2 := e.Tau * e.Tau
	beta2 := e.Beta * e.Beta
	n := len(a) + len(b)

	var muW, muL, c2 float64
	for _, r := range w {
		r.mustFinite()
		muW += r.Mu
		c2 += r.Sigma*r.Sigma + tau2 + beta2
	}
	for _, r := range l {
		r.mustFinite()
		muL += r.Mu
		c2 += r.Sigma*r.Sigma + tau2 + beta2
	}
	c := math.Sqrt(c2)
	margin := e.drawMargin(n) / c
	t := (muW - muL) / c
	v := vWin(t, margin)
	ww := wWin(t, margin)

	update := func(team []Rating, sign float64) []Rating {
		out := make([]Rating, len(team))
		for i, r := range team {
			s2 := r.Sigma*r.Sigma + tau2
			mu := r.Mu + sign*(s2/c)*v
			sigma := math.Sqrt(s2 * math.Max(1-(s2/c2)*ww, sigmaFloor))
			out[i] = Rating{Mu: mu, Sigma: sigma}
		}
		return out
	}
	newW := update(w, +1)
	newL := update(l, -1)
	if winner == WinnerB {
		return newL, newW
	}
	return newW, newL
}

// sigmaFloor keeps the variance factor strictly positive under extreme inputs.
const sigmaFloor = 1e-4

// WinProbability returns the probability that team a beats team b:
// Φ(Δμ / √(n·β² + Σσ²)). Two empty teams give 0.5.
func (e Env) WinProbability(a, b []Rating) float64 {
	n := len(a) + len(b)
	if n == 0 {
		return 0.5
	}
	var delta, sumSigma2 float64
	for _, r := range a {
		r.mustFinite()
		delta += r.Mu
		sumSigma2 += r.Sigma * r.Sigma
	}
	for _, r := range b {
		r.mustFinite()
		delta -= r.Mu
		sumSigma2 += r.Sigma * r.Sigma
	}
	denom := math.Sqrt(float64(n)*e.Beta*e.Beta + sumSigma2)
	return normCDF(delta / denom)
}

// Quality is the TrueSkill match-quality draw estimate for two teams, in (0,1].
// Higher means more even.
func (e Env) Quality(a, b []Rating) float64 {
	n := float64(len(a) + len(b))
	var delta, sumSigma2 float64
	for _, r := range a {
		delta += r.Mu
		sumSigma2 += r.Sigma * r.Sigma
	}
	for _, r := range b {
		delta -= r.Mu
		sumSigma2 += r.Sigma * r.Sigma
	}
	nb := n * e.Beta * e.Beta
	denom := nb + sumSigma2
	return math.Sqrt(nb/denom) * math.Exp(-delta*delta/(2*denom))
}
