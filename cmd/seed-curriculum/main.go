package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/logger"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
)

const levelsPerSubProgram = 3

type programSeed struct {
	name        string
	grades      [2]int
	subprograms []string
}

// The default ladder. Subprograms are listed easiest first.
var ladder = []programSeed{
	{"PRIME CORE", [2]int{1, 4}, []string{"Phonics", "Sigma", "Elite", "Pro"}},
	{"PRIME ASCENT", [2]int{5, 7}, []string{"Nova", "Drive", "Pro"}},
	{"PRIME EDGE", [2]int{8, 10}, []string{"Spark", "Rise", "Pro"}},
	{"PRIME PINNACLE", [2]int{11, 12}, []string{"Vision", "Endeavor", "Success", "Pro"}},
}

// percentileBands split a grade's students from strongest to weakest. Band i
// places into the first level of the i-th hardest subprogram.
var percentileBands = [][2]float64{{0, 10}, {11, 30}, {31, 50}, {51, 100}}

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "Print the curriculum without writing it")
	flag.Parse()

	if dryRun {
		printPlan()
		return
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	existing, err := repository.NewCurriculumRepository(pool).ListPrograms(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list programs")
	}
	if len(existing) > 0 {
		fmt.Printf("Curriculum already has %d programs, nothing to seed.\n", len(existing))
		return
	}

	var levels, rules int
	err = database.WithTx(ctx, pool, func(tx pgx.Tx) error {
		curriculum := repository.NewCurriculumRepository(pool).WithTx(tx)
		placements := repository.NewPlacementRepository(pool).WithTx(tx)

		difficulty := 0
		for pi, ps := range ladder {
			program := &model.Program{
				Name:            ps.name,
				GradeRangeStart: ps.grades[0],
				GradeRangeEnd:   ps.grades[1],
				SortOrder:       pi + 1,
			}
			if err := curriculum.CreateProgram(ctx, program); err != nil {
				return fmt.Errorf("create program %s: %w", ps.name, err)
			}

			// firstLevels[i] is the entry level of the i-th subprogram.
			firstLevels := make([]int, 0, len(ps.subprograms))
			for si, name := range ps.subprograms {
				sub := &model.SubProgram{ProgramID: program.ID, Name: name, SortOrder: si + 1}
				if err := curriculum.CreateSubProgram(ctx, sub); err != nil {
					return fmt.Errorf("create subprogram %s %s: %w", ps.name, name, err)
				}
				for n := 1; n <= levelsPerSubProgram; n++ {
					difficulty++
					d := difficulty
					level := &model.CurriculumLevel{
						SubProgramID:       sub.ID,
						LevelNumber:        n,
						Description:        fmt.Sprintf("%s - %s - Level %d", ps.name, name, n),
						InternalDifficulty: &d,
					}
					if err := curriculum.CreateLevel(ctx, level); err != nil {
						return fmt.Errorf("create level %s: %w", level.Description, err)
					}
					if n == 1 {
						firstLevels = append(firstLevels, level.ID)
					}
					levels++
				}
			}

			for grade := ps.grades[0]; grade <= ps.grades[1]; grade++ {
				for bi, band := range percentileBands {
					idx := len(firstLevels) - 1 - bi
					if idx < 0 {
						idx = 0
					}
					rule := &model.PlacementRule{
						Grade:             grade,
						MinPercentile:     band[0],
						MaxPercentile:     band[1],
						CurriculumLevelID: firstLevels[idx],
						Priority:          1,
					}
					if err := placements.CreateRule(ctx, rule); err != nil {
						return fmt.Errorf("create rule for grade %d: %w", grade, err)
					}
					rules++
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed curriculum")
	}

	fmt.Printf("Success! Seeded %d programs, %d levels and %d placement rules.\n", len(ladder), levels, rules)
}

func printPlan() {
	for _, ps := range ladder {
		fmt.Printf("%s (grades %d-%d)\n", ps.name, ps.grades[0], ps.grades[1])
		for _, name := range ps.subprograms {
			fmt.Printf("  %s: levels 1-%d\n", name, levelsPerSubProgram)
		}
	}
	fmt.Println("Placement bands (percentile -> entry subprogram, hardest first):")
	for i, band := range percentileBands {
		fmt.Printf("  %.0f-%.0f -> subprogram #%d from the top\n", band[0], band[1], i+1)
	}
}
