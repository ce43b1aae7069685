package cmd

import (
	"context"
	"errors"

	"fleet-manager/feature/integrity"
	"fleet-manager/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the store and archive bucket",
	Long:  `Checks the database schema against the entity models, identifier sequences against table contents, and the snapshot archive bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Help()
		}
		return runIntegrityChecks(cmd.Context(), true, true, true)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false, false)
	},
}

// sequencesCmd represents the integrity sequences command
var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Check and fix identifier sequences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true, false)
	},
}

// storageCmd represents the integrity storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and fix the snapshot archive bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(schemaCmd, sequencesCmd, storageCmd)

	sequencesCmd.Flags().BoolVar(&fixFlag, "fix", false, "Repair lagging sequences")
	storageCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the missing bucket")
}

func runIntegrityChecks(ctx context.Context, runSchema, runSequences, runStorage bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	logg := rt.logger
	defer logg.Sync()

	svc := integrity.NewService(rt.db, rt.store, rt.cfg.Storage, logg)
	only := !(runSchema && runSequences && runStorage)

	if runSchema {
		logg.Info("Checking database schema...")
		report, err := svc.CheckSchema()
		if err != nil {
			return err
		}
		if report.Matched {
			logg.Info("Schema matches the entity models.")
		} else {
			logg.Warn("Schema mismatches found")
			for table, tbl := range report.Tables {
				if tbl.Status == "ok" {
					continue
				}
				if tbl.MissingTable {
					logg.Warn("Missing Table", zap.String("table", table))
				}
				if len(tbl.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
				}
				if len(tbl.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tbl.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if runSequences {
		logg.Info("Checking identifier sequences...")
		reports, err := svc.CheckSequences(ctx)
		if err != nil {
			return err
		}

		var behind []string
		for _, r := range reports {
			if r.Status == checks.SequenceBehind {
				behind = append(behind, r.Table)
			}
		}

		if len(behind) == 0 {
			logg.Info("Sequences are ahead of their tables.")
		} else {
			logg.Warn("Lagging sequences detected", zap.Strings("tables", behind))

			if only && fixFlag {
				logg.Info("Repairing sequences...")
				if err := svc.FixSequences(ctx, reports); err != nil {
					return err
				}
				logg.Info("Sequences repaired successfully.")
			} else if only {
				logg.Info("Run with --fix to repair lagging sequences.")
			}
		}
	}

	if runStorage {
		logg.Info("Checking archive bucket...")
		report, err := svc.CheckStorage(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled):
			logg.Info("Object storage not configured; skipping.")
		case err != nil:
			return err
		case report.Exists:
			logg.Info("Archive bucket is present.",
				zap.String("bucket", report.Bucket),
				zap.Int("archives", report.Archives),
				zap.String("latest", report.Latest),
			)
		default:
			logg.Warn("Archive bucket is missing", zap.String("bucket", report.Bucket))

			if only && fixFlag {
				logg.Info("Creating archive bucket...")
				if err := svc.FixStorage(ctx); err != nil {
					return err
				}
				logg.Info("Archive bucket created successfully.")
			} else if only {
				logg.Info("Run with --fix to create the bucket.")
			}
		}
	}

	return nil
}
