// Command detect runs one pattern detection pass for a user and prints
// the resulting report as markdown.
//
// Usage:
//
//	detect -user <user-id> [-import export.xlsx] [-dry-run]
//
// With -dry-run the run executes against a synthetic in-memory fixture
// and no database is touched. An -import file is loaded into the
// observation store before detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cyclewise/adapters/excel"
	"cyclewise/adapters/memory"
	"cyclewise/adapters/postgres"
	"cyclewise/app"
	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/internal"
	"cyclewise/internal/config"
	internalerrors "cyclewise/internal/errors"
	"cyclewise/internal/detect"
	"cyclewise/internal/report"
	"cyclewise/internal/testkit"
	"cyclewise/ports"

	"github.com/joho/godotenv"
)

func main() {
	userFlag := flag.String("user", "", "user id to run detection for")
	importFlag := flag.String("import", "", "xlsx/csv observation export to import first")
	dryRun := flag.Bool("dry-run", false, "run against a synthetic in-memory fixture")
	flag.Parse()

	log := internal.DefaultLogger.Named("detect-cli")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := run(*userFlag, *importFlag, *dryRun, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(user, importPath string, dryRun bool, log *internal.Logger) error {
	ctx := context.Background()

	if dryRun {
		return runDry(ctx, log)
	}

	userID, err := core.ParseUserID(user)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	observations := postgres.NewObservationRepository(db)
	if importPath != "" {
		imported, err := excel.NewDataReader(importPath).ReadObservations(userID)
		if err != nil {
			return err
		}
		if err := observations.InsertAll(ctx, imported); err != nil {
			return err
		}
		log.Info("imported %d observations from %s", len(imported), importPath)
	}

	resolver, err := rotationResolverFromEnv()
	if err != nil {
		return err
	}

	svc := app.NewDetectionService(observations, postgres.NewPatternRepository(db),
		resolver, detect.New(cfg.Detector, log), log)

	rep, err := svc.RunDetection(ctx, userID, core.Now())
	if err != nil {
		return err
	}

	fmt.Print(report.NewRenderer().Markdown(rep))
	return nil
}

// runDry exercises the full pipeline against the synthetic fixture.
func runDry(ctx context.Context, log *internal.Logger) error {
	gen := testkit.NewCycleGenerator(testkit.DefaultCycleConfig())
	obs := gen.Generate()

	store := memory.NewObservationStore()
	store.Add(obs...)

	cfg := config.Default()
	svc := app.NewDetectionService(store, memory.NewPatternStore(),
		ports.CycleLabelResolverFunc(gen.Resolver()), detect.New(cfg.Detector, log), log)

	var asOf core.Timestamp
	if len(obs) > 0 {
		asOf = core.NewTimestamp(obs[len(obs)-1].Timestamp.Time().AddDate(0, 0, 1))
	} else {
		asOf = core.Now()
	}

	rep, err := svc.RunDetection(ctx, testkit.DefaultCycleConfig().UserID, asOf)
	if err != nil {
		return err
	}

	fmt.Print(report.NewRenderer().Markdown(rep))
	return nil
}

// rotationResolverFromEnv builds a fixed-rotation label resolver from
// the environment:
//
//	CYCLE_CATEGORIES  comma-separated key:theme pairs, in rotation order
//	CYCLE_DAYS_PER    days each category spans (default 7)
//	CYCLE_EPOCH       date the rotation starts, YYYY-MM-DD
//
// Label resolution is the calling application's responsibility; this
// built-in resolver covers deployments whose cycle is a plain calendar
// rotation.
func rotationResolverFromEnv() (ports.CycleLabelResolver, error) {
	raw := os.Getenv("CYCLE_CATEGORIES")
	if raw == "" {
		return nil, internalerrors.ConfigInvalid("CYCLE_CATEGORIES is required")
	}

	type category struct{ key, theme string }
	var categories []category
	for _, part := range strings.Split(raw, ",") {
		key, theme, _ := strings.Cut(strings.TrimSpace(part), ":")
		if key == "" {
			return nil, internalerrors.ConfigInvalid(fmt.Sprintf("bad category entry %q", part))
		}
		categories = append(categories, category{key: key, theme: theme})
	}

	daysPer := 7
	if v := os.Getenv("CYCLE_DAYS_PER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, internalerrors.ConfigInvalid(fmt.Sprintf("bad CYCLE_DAYS_PER %q", v))
		}
		daysPer = n
	}

	epochRaw := os.Getenv("CYCLE_EPOCH")
	if epochRaw == "" {
		return nil, internalerrors.ConfigInvalid("CYCLE_EPOCH is required")
	}
	epoch, err := time.Parse("2006-01-02", epochRaw)
	if err != nil {
		return nil, internalerrors.ConfigInvalid(fmt.Sprintf("bad CYCLE_EPOCH %q", epochRaw))
	}

	return ports.CycleLabelResolverFunc(func(ts core.Timestamp) (observation.CyclePeriodContext, error) {
		days := int(ts.Time().Sub(epoch).Hours() / 24)
		if days < 0 {
			return observation.CyclePeriodContext{}, nil
		}
		cat := categories[(days/daysPer)%len(categories)]
		return observation.CyclePeriodContext{
			MacroCategory: cat.key,
			MacroTheme:    cat.theme,
		}, nil
	}), nil
}
