package stats

// Tier is one rung of the rating ladder: ratings strictly above Min earn Name.
type Tier struct {
	Min  float64
	Name string
}

// Unranked is returned for ratings at or below the lowest cutoff.
const Unranked = "Unrank"

// Tiers is ordered from the highest cutoff down.
var Tiers = []Tier{
	{55.44, "Challenger"},
	{52.72, "Grandmaster"},
	{48.93, "Master"},
	{46.50, "Diamond1"},
	{44.77, "Diamond2"},
	{43.72, "Diamond3"},
	{42.30, "Diamond4"},
	{40.11, "Platinum1"},
	{38.79, "Platinum2"},
	{37.43, "Platinum3"},
	{34.88, "Platinum4"},
	{33.64, "Gold1"},
	{32.17, "Gold2"},
	{30.75, "Gold3"},
	{28.10, "Gold4"},
	{26.60, "Silver1"},
	{24.86, "Silver2"},
	{23.32, "Silver3"},
	{20.87, "Silver4"},
	{19.01, "Bronze1"},
	{16.95, "Bronze2"},
	{14.96, "Bronze3"},
	{11.76, "Bronze4"},
	{9.69, "Iron1"},
	{7.90, "Iron2"},
	{6.68, "Iron3"},
	{5.78, "Iron4"},
}

// TierFor maps a rating mean onto the ladder.
func TierFor(mu float64) string {
	for _, t := range Tiers {
		if mu > t.Min {
			return t.Name
		}
	}
	return Unranked
}
