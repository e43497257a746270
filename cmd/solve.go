package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/display"
	"github.com/akashicode/solvesafe/internal/models"
	"github.com/akashicode/solvesafe/internal/pipeline"
	"github.com/akashicode/solvesafe/internal/reader"
)

var (
	solveEnrollment string
	solveName       string
	solveBatch      string
	solveParallel   int
)

var solveCmd = &cobra.Command{
	Use:   "solve FILE...",
	Short: "Run the submission pipeline on local files",
	Long: `Runs each file through the same pipeline as POST /upload and prints the
submission id and solution path. Accepts .pdf, .txt and .md files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveEnrollment, "enrollment", "", "enrollment number shown on the document")
	solveCmd.Flags().StringVar(&solveName, "name", "", "student name shown on the document")
	solveCmd.Flags().StringVar(&solveBatch, "batch", "", "batch shown on the document")
	solveCmd.Flags().IntVar(&solveParallel, "parallel", 2, "files processed at once")
	rootCmd.AddCommand(solveCmd)
}

type solveResult struct {
	file  string
	token string
	path  string
	err   error
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	meta := models.Metadata{Enrollment: solveEnrollment, Name: solveName, Batch: solveBatch}
	results := make([]solveResult, len(args))

	display.Header("SolveSafe")
	var printMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if solveParallel > 0 {
		g.SetLimit(solveParallel)
	}
	for i, path := range args {
		g.Go(func() error {
			res := solveResult{file: path}
			defer func() {
				results[i] = res
				printMu.Lock()
				defer printMu.Unlock()
				display.Step(i+1, len(args), path)
				if res.err != nil {
					display.StepWarn(apperr.UserMessage(res.err, res.err.Error()))
					return
				}
				display.StepResult("id", res.token)
				display.StepDetail(res.path)
			}()

			doc, err := reader.LoadFile(path)
			if err != nil {
				res.err = err
				return nil
			}
			res.token, res.err = a.orch.Submit(gctx, pipeline.Upload{Data: doc.Data, Metadata: meta})
			if res.err != nil {
				return nil
			}
			res.path, res.err = a.orch.Lookup(gctx, res.token)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	fmt.Println()
	if failed > 0 {
		display.ErrorMsg(fmt.Sprintf("%d of %d file(s) failed", failed, len(args)))
		return fmt.Errorf("%d file(s) failed", failed)
	}
	display.Success(fmt.Sprintf("%d solution(s) written to %s%s%s", len(args), display.Bold, cfg.Storage.SolutionsDir, display.Reset))
	return nil
}
