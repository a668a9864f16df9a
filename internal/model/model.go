package model

import (
	"fmt"
	"strings"
	"time"
)

// Side is the map side a team played on. Values follow the match CSV export.
type Side int

const (
	SideUnknown Side = 0
	SideBlue    Side = 100
	SideRed     Side = 200
)

func (s Side) String() string {
	switch s {
	case SideBlue:
		return "BLUE"
	case SideRed:
		return "RED"
	default:
		return "?"
	}
}

// Role is one of the five canonical lane positions.
type Role int

const (
	RoleTop Role = iota
	RoleJungle
	RoleMid
	RoleBot
	RoleSupport
)

// NumRoles is the team size; every side fields exactly one player per role.
const NumRoles = 5

// Roles lists the roles in display order.
var Roles = [NumRoles]Role{RoleTop, RoleJungle, RoleMid, RoleBot, RoleSupport}

func (r Role) String() string {
	switch r {
	case RoleTop:
		return "TOP"
	case RoleJungle:
		return "JNG"
	case RoleMid:
		return "MID"
	case RoleBot:
		return "BOT"
	case RoleSupport:
		return "SUP"
	default:
		return "?"
	}
}

// Valid reports whether r is one of the five canonical roles.
func (r Role) Valid() bool { return r >= RoleTop && r <= RoleSupport }

// ParseRole accepts both the client export names (TOP, JUNGLE, MIDDLE, BOTTOM,
// UTILITY) and the short display names.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP":
		return RoleTop, nil
	case "JUNGLE", "JNG", "JG":
		return RoleJungle, nil
	case "MIDDLE", "MID":
		return RoleMid, nil
	case "BOTTOM", "BOT", "ADC":
		return RoleBot, nil
	case "UTILITY", "SUPPORT", "SUP", "SUPP":
		return RoleSupport, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Scope selects which rating / stat line is meant: the overall one or a single role.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeTop
	ScopeJungle
	ScopeMid
	ScopeBot
	ScopeSupport
)

// NumScopes is ScopeAll plus one scope per role.
const NumScopes = NumRoles + 1

// Scopes lists every scope, ScopeAll first.
var Scopes = [NumScopes]Scope{ScopeAll, ScopeTop, ScopeJungle, ScopeMid, ScopeBot, ScopeSupport}

// ScopeOf returns the per-role scope for r.
func ScopeOf(r Role) Scope { return Scope(r + 1) }

// Role returns the role behind a per-role scope; ok is false for ScopeAll.
func (s Scope) Role() (Role, bool) {
	if s <= ScopeAll || s >= NumScopes {
		return 0, false
	}
	return Role(s - 1), true
}

func (s Scope) String() string {
	if s == ScopeAll {
		return "ALL"
	}
	if r, ok := s.Role(); ok {
		return r.String()
	}
	return "?"
}

// ParseScope accepts "ALL" or any name ParseRole accepts.
func ParseScope(s string) (Scope, error) {
	if strings.EqualFold(strings.TrimSpace(s), "ALL") || s == "" {
		return ScopeAll, nil
	}
	r, err := ParseRole(s)
	if err != nil {
		return 0, fmt.Errorf("unknown scope %q", s)
	}
	return ScopeOf(r), nil
}

// ---- Raw records ----

// Row is one participant's line of a match export.
type Row struct {
	Player         string
	Champion       string
	Side           Side
	Role           Role
	Kills          int
	Deaths         int
	Assists        int
	Gold           int
	Minions        int
	NeutralMinions int
	Wards          int // control wards bought
	Win            bool
}

// CS is lane plus jungle minion kills.
func (r Row) CS() int { return r.Minions + r.NeutralMinions }

// KDA uses the per-game convention that zero deaths counts as one.
func (r Row) KDA() float64 {
	d := r.Deaths
	if d == 0 {
		d = 1
	}
	return float64(r.Kills+r.Assists) / float64(d)
}

// MatchSize is the number of rows per match (two sides of five).
const MatchSize = 2 * NumRoles

// Match is one game: exactly MatchSize rows in source order.
type Match struct {
	ID   string
	Seq  int // replay position; lower is older
	Rows []Row
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	ID         string
	Source     string
	Seq        int
	ImportedAt time.Time
	Winner     Side
	BlueKills  int
	RedKills   int
}

// ---- Aggregated stats ----

// Counts are the raw accumulators for one (entity, scope) pair.
type Counts struct {
	MatchCount int
	WinCount   int
	Kills      int
	Deaths     int
	Assists    int
	CS         int
	Gold       int
	Wards      int

	// Rating is the most recent rating mean; Rated is false until one was recorded.
	Rating float64
	Rated  bool
}

// Add returns c with row folded in. c itself is left untouched.
func (c Counts) Add(row Row) Counts {
	c.MatchCount++
	if row.Win {
		c.WinCount++
	}
	c.Kills += row.Kills
	c.Deaths += row.Deaths
	c.Assists += row.Assists
	c.CS += row.CS()
	c.Gold += row.Gold
	c.Wards += row.Wards
	return c
}

// WithRating returns c with the rating snapshot replaced.
func (c Counts) WithRating(mu float64) Counts {
	c.Rating = mu
	c.Rated = true
	return c
}

// Bucket holds the Counts of one entity for every scope, indexed by Scope.
type Bucket [NumScopes]Counts

// Add returns b with row folded into ScopeAll and into the row's role scope.
func (b Bucket) Add(row Row) Bucket {
	b[ScopeAll] = b[ScopeAll].Add(row)
	s := ScopeOf(row.Role)
	b[s] = b[s].Add(row)
	return b
}

// PairKey identifies a (player, champion) combination.
type PairKey struct {
	Player   string
	Champion string
}

// Metric is a derived value that may be undefined (no matches in scope).
type Metric struct {
	Value float64
	Valid bool
}

// Some wraps a defined value.
func Some(v float64) Metric { return Metric{Value: v, Valid: true} }

// Text formats the metric with prec decimals, or "-" when there is no data.
func (m Metric) Text(prec int) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, m.Value)
}

// ---- Lookup tables ----

// AliasTable maps raw account names onto one canonical player identity.
type AliasTable map[string]string

// Canonical returns the identity for raw; unknown names pass through unchanged.
func (a AliasTable) Canonical(raw string) string {
	if c, ok := a[raw]; ok && c != "" {
		return c
	}
	return raw
}

// RolePriority holds, per player, a rank for each role (index = Role);
// lower rank means more preferred.
type RolePriority map[string][NumRoles]int

// Order returns the player's roles from most to least preferred.
func (p RolePriority) Order(player string) ([NumRoles]Role, bool) {
	ranks, ok := p[player]
	if !ok {
		return Roles, false
	}
	order := Roles
	// insertion sort: five elements, stable on role order for equal ranks
	for i := 1; i < NumRoles; i++ {
		for j := i; j > 0 && ranks[order[j]] < ranks[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order, true
}
