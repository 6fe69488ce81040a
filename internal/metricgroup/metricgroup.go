// Package metricgroup maps raw playing positions to position groups and the
// ordered metric list each group is ranked on.
package metricgroup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/albapepper/scoracle-rankings/internal/record"
)

// AllGroup names the sentinel rule that is never matched by position lookup.
const AllGroup = "all"

// Rule is one row of the metric grouping table.
type Rule struct {
	Group     string   `yaml:"position_groups" json:"position_group"`
	Positions []string `yaml:"positions_statsbomb" json:"comparable_positions"`
	Metrics   []string `yaml:"statsbomb_metrics" json:"general_metrics"`
}

// Covers reports whether the rule lists the position.
func (r Rule) Covers(position string) bool {
	for _, p := range r.Positions {
		if p == position {
			return true
		}
	}
	return false
}

// Rules is the grouping table in lookup order.
type Rules []Rule

// Resolution is the result of resolving a position.
type Resolution struct {
	Group               string   `json:"position_group"`
	Metrics             []string `json:"general_metrics"`
	ComparablePositions []string `json:"comparable_positions"`
}

// Resolve returns the first non-sentinel rule covering the position.
func (rs Rules) Resolve(position string) (Resolution, error) {
	for _, r := range rs {
		if r.Group == AllGroup || !r.Covers(position) {
			continue
		}
		return Resolution{
			Group:               r.Group,
			Metrics:             append([]string(nil), r.Metrics...),
			ComparablePositions: append([]string(nil), r.Positions...),
		}, nil
	}
	return Resolution{}, &record.UnknownPositionError{Position: position}
}

// ResolveRecord resolves the record's primary position.
func (rs Rules) ResolveRecord(p record.PlayerSeason) (Resolution, error) {
	return rs.Resolve(p.PrimaryPosition)
}

// Group returns the rule for a group name.
func (rs Rules) Group(name string) (Rule, bool) {
	for _, r := range rs {
		if r.Group == name {
			return r, true
		}
	}
	return Rule{}, false
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

type file struct {
	Groups Rules `yaml:"groups"`
}

// LoadFile reads a grouping table from a YAML file.
func LoadFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metric groups: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML grouping table. Position labels are
// normalized the same way record positions are.
func Parse(data []byte) (Rules, error) {
	var f file
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse metric groups: %w", err)
	}
	if len(f.Groups) == 0 {
		return nil, fmt.Errorf("parse metric groups: no groups defined")
	}
	for i := range f.Groups {
		r := &f.Groups[i]
		r.Group = strings.TrimSpace(r.Group)
		if r.Group == "" {
			return nil, fmt.Errorf("metric group %d: position_groups is empty", i)
		}
		if len(r.Positions) == 0 {
			return nil, fmt.Errorf("metric group %q: no positions", r.Group)
		}
		if len(r.Metrics) == 0 {
			return nil, fmt.Errorf("metric group %q: no metrics", r.Group)
		}
		for j, p := range r.Positions {
			r.Positions[j] = record.NormalizeLabel(p)
		}
		for j, m := range r.Metrics {
			r.Metrics[j] = strings.TrimSpace(m)
		}
	}
	return f.Groups, nil
}
