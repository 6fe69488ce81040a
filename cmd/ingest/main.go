// Command ingest is the Scoracle rankings data CLI.
//
// Usage:
//
//	scoracle-ingest migrate
//	scoracle-ingest load --file legacy.csv --file current.csv
//	scoracle-ingest groups --file configs/metric_groups.yaml
//	scoracle-ingest rank competition --season-id 90 --competition-id 4 --position "Left Back"
//	scoracle-ingest rank season --season-name 2023/2024 --position winger --policy zero
//	scoracle-ingest rank league --league "League One" --season-name 2023 --position striker
//	scoracle-ingest standing --player "Bobby Wales" --season-id 90 --scope all_leagues
//	scoracle-ingest standing --csv players.csv --player A --player B --season-id 90
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-rankings/internal/config"
	"github.com/albapepper/scoracle-rankings/internal/csvload"
	"github.com/albapepper/scoracle-rankings/internal/db"
	"github.com/albapepper/scoracle-rankings/internal/maintenance"
	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/preprocess"
	"github.com/albapepper/scoracle-rankings/internal/record"
	"github.com/albapepper/scoracle-rankings/internal/standing"
	"github.com/albapepper/scoracle-rankings/internal/store"
)

// defaultGroupsFile is used when neither --groups nor METRIC_GROUPS_FILE is set
// and the command runs without a database.
const defaultGroupsFile = "configs/metric_groups.yaml"

// Logs go to stderr so rank and standing JSON on stdout stays pipeable.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "scoracle-ingest",
		Short: "Scoracle rankings data CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(groupsCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(standingCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the player_seasons and metric_groups tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Preprocess player-season CSV exports and upsert them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) == 0 {
				return fmt.Errorf("at least one --file is required")
			}
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				start := time.Now()
				records, result, err := readCSVs(files, cfg.PreprocessOptions())
				if err != nil {
					return err
				}
				written, err := store.New(pool).UpsertPlayerSeasons(ctx, records, logger)
				result.Add(written)
				if err != nil {
					return err
				}
				if err := maintenance.AfterLoad(ctx, pool.Pool, config.PlayerSeasonsTable, written.Upserted, logger); err != nil {
					result.AddErrorf("after load: %v", err)
				}
				logger.Info("Load finished",
					"files", len(files),
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("load error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "CSV export to load (repeatable; later files may use a different column order)")
	return cmd
}

// --------------------------------------------------------------------------
// groups command
// --------------------------------------------------------------------------

func groupsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Replace the metric grouping table from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				path := firstNonEmpty(file, cfg.MetricGroupsFile, defaultGroupsFile)
				rules, err := metricgroup.LoadFile(path)
				if err != nil {
					return err
				}
				if err := store.New(pool).ReplaceMetricGroups(ctx, rules); err != nil {
					return err
				}
				logger.Info("Metric groups replaced", "file", path, "groups", len(rules))
				return maintenance.AfterLoad(ctx, pool.Pool, config.MetricGroupsTable, len(rules), logger)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Metric groups YAML (default METRIC_GROUPS_FILE or "+defaultGroupsFile+")")
	return cmd
}

// --------------------------------------------------------------------------
// rank command
// --------------------------------------------------------------------------

type inputFlags struct {
	csv    []string
	groups string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.csv, "csv", nil, "Rank CSV exports instead of the database (repeatable)")
	cmd.Flags().StringVar(&f.groups, "groups", "", "Metric groups YAML instead of the database table")
}

func rankCmd() *cobra.Command {
	var (
		in            inputFlags
		position      string
		policyName    string
		seasonID      int
		competitionID int
		seasonName    string
		league        string
		limit         int
	)
	cmd := &cobra.Command{
		Use:       "rank {competition|season|league}",
		Short:     "Rank a position group within a cohort and print JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"competition", "season", "league"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInputs(in, func(ctx context.Context, cfg *config.Config, records []record.PlayerSeason, rules metricgroup.Rules) error {
				res, err := rules.Resolve(record.NormalizeLabel(position))
				if err != nil {
					return err
				}
				policy, err := percentile.ParsePolicy(policyName)
				if err != nil {
					return err
				}

				q := percentile.Query{Positions: res.ComparablePositions, Metrics: res.Metrics, Policy: policy}
				switch args[0] {
				case "competition":
					q.Selector = percentile.CompetitionSeason{SeasonID: seasonID, CompetitionID: competitionID}
				case "season":
					q.Selector = percentile.CrossLeagueSeason{SeasonName: seasonName}
				case "league":
					rows, sel, err := standing.LeagueRows(records, league, seasonName)
					if err != nil {
						return err
					}
					records, q.Selector = rows, sel
				default:
					return fmt.Errorf("unknown cohort %q (want competition, season or league)", args[0])
				}

				ranked, err := percentile.Rank(records, q)
				if err != nil {
					return err
				}
				sorted := percentile.SortByAverageRank(ranked)
				if limit > 0 && len(sorted) > limit {
					sorted = sorted[:limit]
				}
				logger.Info("Ranked cohort",
					"cohort", q.Describe(),
					"group", res.Group,
					"policy", q.EffectivePolicy().String(),
					"players", len(ranked))
				return printJSON(sorted)
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&position, "position", "", "Playing position to resolve to a position group")
	cmd.Flags().StringVar(&policyName, "policy", "", "Missing-value policy: neutral or zero (default per cohort)")
	cmd.Flags().IntVar(&seasonID, "season-id", 0, "Season ID (competition cohort)")
	cmd.Flags().IntVar(&competitionID, "competition-id", 0, "Competition ID (competition cohort)")
	cmd.Flags().StringVar(&seasonName, "season-name", "", "Season name, e.g. 2023 or 2023/2024 (season and league cohorts)")
	cmd.Flags().StringVar(&league, "league", "", "Competition name (league cohort)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print only the top N rows (0 = all)")
	cmd.MarkFlagRequired("position")
	return cmd
}

// --------------------------------------------------------------------------
// standing command
// --------------------------------------------------------------------------

func standingCmd() *cobra.Command {
	var (
		in         inputFlags
		players    []string
		seasonID   int
		scopeName  string
		league     string
		policyName string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "standing",
		Short: "Compute player standings concurrently and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(players) == 0 {
				return fmt.Errorf("at least one --player is required")
			}
			scope, err := standing.ParseScope(scopeName)
			if err != nil {
				return err
			}
			policy, err := percentile.ParsePolicy(policyName)
			if err != nil {
				return err
			}
			return runInputs(in, func(ctx context.Context, cfg *config.Config, records []record.PlayerSeason, rules metricgroup.Rules) error {
				opts := cfg.StandingOptions()
				if policy != 0 {
					opts.Policy = policy
				}
				if workers <= 0 {
					workers = cfg.StandingWorkers
				}

				reqs := make([]standing.Request, len(players))
				for i, name := range players {
					reqs[i] = standing.Request{PlayerName: name, SeasonID: seasonID, Scope: scope, League: league}
				}

				result := standing.New(records, rules, opts).Batch(ctx, reqs, workers, logger)
				logger.Info("Standings finished", "summary", result.Summary())

				var out []*standing.Standing
				for _, r := range result.Results {
					if r.Err != nil {
						logger.Error("standing error", "request", r.Request.String(), "error", r.Err)
						continue
					}
					logger.Info("Standing", "request", r.Request.String(), "summary", r.Standing.Summary())
					out = append(out, r.Standing)
				}
				if err := printJSON(out); err != nil {
					return err
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d standings failed", result.Failed, len(reqs))
				}
				return nil
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringArrayVar(&players, "player", nil, "Player name (repeatable)")
	cmd.Flags().IntVar(&seasonID, "season-id", 0, "Season ID the players are looked up in")
	cmd.Flags().StringVar(&scopeName, "scope", string(standing.ScopeOwnLeague), "Cohort scope: own_league, all_leagues or league_season")
	cmd.Flags().StringVar(&league, "league", "", "Competition name for scope league_season")
	cmd.Flags().StringVar(&policyName, "policy", "", "Missing-value policy: neutral or zero (default per cohort)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent workers (default STANDING_WORKERS)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runDB handles config loading, DB connection, and context cancellation.
func runDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// runInputs loads ranking inputs from CSV and YAML when given, otherwise from
// the database, then calls fn.
func runInputs(in inputFlags, fn func(ctx context.Context, cfg *config.Config, records []record.PlayerSeason, rules metricgroup.Rules) error) error {
	if len(in.csv) == 0 {
		return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
			st := store.New(pool)
			records, err := st.PlayerSeasons(ctx)
			if err != nil {
				return err
			}
			rules, err := loadRules(ctx, cfg, in.groups, st)
			if err != nil {
				return err
			}
			logger.Info("Loaded ranking inputs", "source", "database", "rows", len(records), "groups", len(rules))
			return fn(ctx, cfg, records, rules)
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	records, result, err := readCSVs(in.csv, cfg.PreprocessOptions())
	if err != nil {
		return err
	}
	rules, err := loadRules(ctx, cfg, in.groups, nil)
	if err != nil {
		return err
	}
	logger.Info("Loaded ranking inputs", "source", "csv", "summary", result.Summary(), "groups", len(rules))
	return fn(ctx, cfg, records, rules)
}

// loadRules prefers an explicit file, then the stored table, then the
// configured or bundled file.
func loadRules(ctx context.Context, cfg *config.Config, file string, st *store.Store) (metricgroup.Rules, error) {
	if file != "" {
		return metricgroup.LoadFile(file)
	}
	if st != nil && cfg.MetricGroupsFile == "" {
		rules, err := st.MetricGroups(ctx)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			return rules, nil
		}
		logger.Warn("metric_groups table is empty, falling back to file", "file", defaultGroupsFile)
	}
	return metricgroup.LoadFile(firstNonEmpty(cfg.MetricGroupsFile, defaultGroupsFile))
}

// readCSVs concatenates the exports, preprocesses and deduplicates them.
func readCSVs(paths []string, opts preprocess.Options) ([]record.PlayerSeason, store.LoadResult, error) {
	var result store.LoadResult
	tables := make([]preprocess.Table, 0, len(paths))
	for _, p := range paths {
		t, err := csvload.ReadFile(p)
		if err != nil {
			return nil, result, err
		}
		logger.Info("Read CSV", "file", p, "rows", len(t.Rows), "columns", len(t.Columns))
		tables = append(tables, t)
	}
	table := csvload.Concat(tables...)
	result.Read = len(table.Rows)

	records, err := preprocess.Preprocess(table, opts)
	if err != nil {
		return nil, result, err
	}
	records = preprocess.Dedupe(records)
	result.Kept = len(records)
	return records, result, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
