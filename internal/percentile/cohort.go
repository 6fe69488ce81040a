package percentile

import (
	"fmt"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/record"
)

// --------------------------------------------------------------------------
// Fill policies
// --------------------------------------------------------------------------

// Policy is the missing-value treatment for per-metric percentiles.
type Policy int

const (
	// NeutralFill gives missing values exactly 50 and ranks only the
	// recorded values, scaled by the number of recorded values.
	NeutralFill Policy = iota + 1
	// ZeroFill treats missing values as 0 and ranks the whole cohort,
	// scaled by the cohort size.
	ZeroFill
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == NeutralFill || p == ZeroFill
}

func (p Policy) String() string {
	switch p {
	case NeutralFill:
		return "neutral"
	case ZeroFill:
		return "zero"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "neutral"/"neutral-fill" and "zero"/"zero-fill".
// An empty string yields the zero Policy, meaning "selector default".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "neutral", "neutral-fill", "neutral_fill":
		return NeutralFill, nil
	case "zero", "zero-fill", "zero_fill":
		return ZeroFill, nil
	}
	return 0, fmt.Errorf("unknown fill policy %q (want neutral or zero)", s)
}

// --------------------------------------------------------------------------
// Cohort selectors
// --------------------------------------------------------------------------

// Selector chooses the rows a ranking runs over before the position filter.
type Selector interface {
	Select(records []record.PlayerSeason) ([]record.PlayerSeason, error)
	Describe() string
	// DefaultPolicy is the fill policy this call site uses when the caller
	// does not pick one.
	DefaultPolicy() Policy
}

// CompetitionSeason selects one competition in one season.
type CompetitionSeason struct {
	SeasonID      int
	CompetitionID int
}

func (s CompetitionSeason) Select(records []record.PlayerSeason) ([]record.PlayerSeason, error) {
	var out []record.PlayerSeason
	for _, r := range records {
		if r.SeasonID == s.SeasonID && r.CompetitionID == s.CompetitionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s CompetitionSeason) Describe() string {
	return fmt.Sprintf("season_id=%d competition_id=%d", s.SeasonID, s.CompetitionID)
}

// DefaultPolicy is ZeroFill for single-league rankings.
func (s CompetitionSeason) DefaultPolicy() Policy { return ZeroFill }

// CrossLeagueSeason selects every league's rows for a season, matching both
// the bare-year and split-year spellings so summer and winter leagues rank
// together.
type CrossLeagueSeason struct {
	SeasonName string
}

// SeasonNames returns the target season and its complementary spelling.
func (s CrossLeagueSeason) SeasonNames() ([]string, error) {
	other, err := record.ComplementarySeason(s.SeasonName)
	if err != nil {
		return nil, &record.DataValidationError{Row: "query", Field: "season_name", Value: s.SeasonName, Err: err}
	}
	return []string{s.SeasonName, other}, nil
}

func (s CrossLeagueSeason) Select(records []record.PlayerSeason) ([]record.PlayerSeason, error) {
	names, err := s.SeasonNames()
	if err != nil {
		return nil, err
	}
	var out []record.PlayerSeason
	for _, r := range records {
		if r.SeasonName == names[0] || r.SeasonName == names[1] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s CrossLeagueSeason) Describe() string {
	return fmt.Sprintf("season_name=%s (all leagues)", s.SeasonName)
}

// DefaultPolicy is NeutralFill for cross-league rankings.
func (s CrossLeagueSeason) DefaultPolicy() Policy { return NeutralFill }

// Subset ranks rows the caller has already filtered, e.g. one league across
// several years.
type Subset struct {
	Label string
}

func (s Subset) Select(records []record.PlayerSeason) ([]record.PlayerSeason, error) {
	return records, nil
}

func (s Subset) Describe() string {
	if s.Label == "" {
		return "subset"
	}
	return "subset " + s.Label
}

// DefaultPolicy is NeutralFill for caller-supplied subsets.
func (s Subset) DefaultPolicy() Policy { return NeutralFill }
