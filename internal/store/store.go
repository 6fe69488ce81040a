// Package store persists preprocessed player-season rows and the metric
// grouping table in Postgres and reads them back for ranking. Rankings
// themselves are never stored.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-rankings/internal/config"
	"github.com/albapepper/scoracle-rankings/internal/db"
	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/record"
)

// batchSize bounds the statements queued per pgx batch.
const batchSize = 500

// Store reads and writes ranking inputs.
type Store struct {
	pool *db.Pool
}

// New wraps a pool whose connections carry the prepared statements from
// db.Statements.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// Season is one competition-season present in the table.
type Season struct {
	SeasonID        int    `json:"season_id"`
	SeasonName      string `json:"season_name"`
	CompetitionID   int    `json:"competition_id"`
	CompetitionName string `json:"competition_name"`
	Players         int    `json:"players"`
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.HealthCheck(ctx)
}

// --------------------------------------------------------------------------
// Player seasons
// --------------------------------------------------------------------------

// upsertPlayerSeasonSQL keeps the row with the most minutes when the same
// player/season/competition/team arrives again, matching preprocess.Dedupe.
const upsertPlayerSeasonSQL = `
	INSERT INTO ` + config.PlayerSeasonsTable + ` (
		player_id, season_id, competition_id, team_name,
		player_name, season_name, competition_name, primary_position,
		minutes, birth_date, age, metrics, attributes
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (player_id, season_id, competition_id, team_name) DO UPDATE SET
		player_name = EXCLUDED.player_name,
		season_name = EXCLUDED.season_name,
		competition_name = EXCLUDED.competition_name,
		primary_position = EXCLUDED.primary_position,
		minutes = EXCLUDED.minutes,
		birth_date = EXCLUDED.birth_date,
		age = EXCLUDED.age,
		metrics = EXCLUDED.metrics,
		attributes = EXCLUDED.attributes,
		updated_at = NOW()
	WHERE EXCLUDED.minutes > ` + config.PlayerSeasonsTable + `.minutes`

// UpsertPlayerSeasons writes records in batches. Rows that lose to an
// existing row with more minutes are counted as skipped.
func (s *Store) UpsertPlayerSeasons(ctx context.Context, records []record.PlayerSeason, logger *slog.Logger) (LoadResult, error) {
	var result LoadResult

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		chunk := records[start:end]

		batch := &pgx.Batch{}
		for _, r := range chunk {
			args, err := upsertArgs(r)
			if err != nil {
				result.AddErrorf("encode %s: %v", r.Key(), err)
				continue
			}
			batch.Queue(upsertPlayerSeasonSQL, args...)
		}
		if batch.Len() == 0 {
			continue
		}

		br := s.pool.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return result, fmt.Errorf("upsert player seasons: %w", err)
			}
			if tag.RowsAffected() > 0 {
				result.Upserted++
			} else {
				result.Skipped++
			}
		}
		if err := br.Close(); err != nil {
			return result, fmt.Errorf("close batch: %w", err)
		}
		logger.Info("Player seasons progress", "written", end, "total", len(records))
	}
	return result, nil
}

func upsertArgs(r record.PlayerSeason) ([]any, error) {
	metrics, err := json.Marshal(finiteMetrics(r.Metrics))
	if err != nil {
		return nil, err
	}
	attrs, err := json.Marshal(nonNilAttrs(r.Attributes))
	if err != nil {
		return nil, err
	}
	return []any{
		r.PlayerID, r.SeasonID, r.CompetitionID, r.TeamName,
		r.PlayerName, r.SeasonName, r.CompetitionName, r.PrimaryPosition,
		r.Minutes, r.BirthDate, r.Age, metrics, attrs,
	}, nil
}

// PlayerSeasons loads the full table. Every ranking call starts from this
// fresh read.
func (s *Store) PlayerSeasons(ctx context.Context) ([]record.PlayerSeason, error) {
	rows, err := s.pool.Query(ctx, "load_player_seasons")
	if err != nil {
		return nil, fmt.Errorf("load player seasons: %w", err)
	}
	defer rows.Close()

	var out []record.PlayerSeason
	for rows.Next() {
		var r record.PlayerSeason
		var metrics, attrs []byte
		if err := rows.Scan(
			&r.PlayerID, &r.PlayerName, &r.TeamName, &r.SeasonID, &r.SeasonName,
			&r.CompetitionID, &r.CompetitionName, &r.PrimaryPosition, &r.Minutes,
			&r.BirthDate, &r.Age, &metrics, &attrs,
		); err != nil {
			return nil, fmt.Errorf("scan player season: %w", err)
		}
		if err := decodeJSONColumns(&r, metrics, attrs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load player seasons: %w", err)
	}
	return out, nil
}

// Seasons lists the competition-seasons present.
func (s *Store) Seasons(ctx context.Context) ([]Season, error) {
	rows, err := s.pool.Query(ctx, "available_seasons")
	if err != nil {
		return nil, fmt.Errorf("load seasons: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Season, error) {
		var se Season
		err := row.Scan(&se.SeasonID, &se.SeasonName, &se.CompetitionID, &se.CompetitionName, &se.Players)
		return se, err
	})
}

// --------------------------------------------------------------------------
// Metric groups
// --------------------------------------------------------------------------

// MetricGroups loads the grouping table in its stored order.
func (s *Store) MetricGroups(ctx context.Context) (metricgroup.Rules, error) {
	rows, err := s.pool.Query(ctx, "load_metric_groups")
	if err != nil {
		return nil, fmt.Errorf("load metric groups: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (metricgroup.Rule, error) {
		var r metricgroup.Rule
		err := row.Scan(&r.Group, &r.Positions, &r.Metrics)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("load metric groups: %w", err)
	}
	return rules, nil
}

// ReplaceMetricGroups swaps the grouping table atomically. Rule order is
// kept through sort_order because position lookup takes the first match.
func (s *Store) ReplaceMetricGroups(ctx context.Context, rules metricgroup.Rules) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+config.MetricGroupsTable); err != nil {
		return fmt.Errorf("clear metric groups: %w", err)
	}
	for i, r := range rules {
		_, err := tx.Exec(ctx,
			"INSERT INTO "+config.MetricGroupsTable+" (position_group, positions, metrics, sort_order) VALUES ($1,$2,$3,$4)",
			r.Group, r.Positions, r.Metrics, i)
		if err != nil {
			return fmt.Errorf("insert metric group %q: %w", r.Group, err)
		}
	}
	return tx.Commit(ctx)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// finiteMetrics drops NaN and infinities, which JSON cannot carry. A dropped
// value reads back as missing.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// nonNilAttrs ensures a nil map becomes an empty map for JSON marshaling.
func nonNilAttrs(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func decodeJSONColumns(r *record.PlayerSeason, metrics, attrs []byte) error {
	r.Metrics = map[string]float64{}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
			return fmt.Errorf("decode metrics for %s: %w", r.Key(), err)
		}
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &r.Attributes); err != nil {
			return fmt.Errorf("decode attributes for %s: %w", r.Key(), err)
		}
		if len(r.Attributes) == 0 {
			r.Attributes = nil
		}
	}
	return nil
}
