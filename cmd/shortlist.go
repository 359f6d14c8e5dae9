package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
	"github.com/nilesh-r/jobsense/internal/shortlist"
	"github.com/nilesh-r/jobsense/internal/util"
)

const (
	PromptSave                = "Save all analyses"
	PromptNo                  = "Exit"
	PromptBack                = "back"
	PromptReportByKeywords    = "Report by missing keywords"
	PromptReview              = "Review jobs one by one"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
	PromptJobsToFile          = "Dump shortlist to file"

	missingPreview = 5
)

var errExit = errors.New("exit requested")

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Score a resume against a directory of job descriptions and pick the best matches",
	Run: func(cmd *cobra.Command, _ []string) {
		runShortlist(cmd)
	},
}

func init() {
	rootCmd.AddCommand(shortlistCmd)

	shortlistCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .txt, .md)")
	shortlistCmd.Flags().String("jobs", "", "directory with job descriptions")
	shortlistCmd.Flags().BoolP("include-analyzed", "f", false, "do not exclude jobs already analyzed for this resume")
	shortlistCmd.Flags().BoolP("yes", "y", false, "save the shortlist without asking")
	shortlistCmd.Flags().StringP("exclude-file", "e", "", "file with jobs to exclude. Default is unset.")
	shortlistCmd.Flags().Int("minimum-score", 0, "drop jobs with a lower ATS score")

	shortlistCmd.MarkFlagRequired("resume")
	shortlistCmd.MarkFlagRequired("jobs")

	viper.BindPFlag("shortlist.exclude-file", shortlistCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("shortlist.minimum-score", shortlistCmd.Flags().Lookup("minimum-score"))
}

func runShortlist(cmd *cobra.Command) {
	ctx := context.Background()

	rt := setup(ctx, true)
	defer rt.close()
	l := rt.logger
	cfg := rt.config.Shortlist

	resumePath, _ := cmd.Flags().GetString("resume")
	resumeText, err := readDocument(resumePath)
	if err != nil {
		l.Fatal("reading resume", zap.String("path", resumePath), zap.Error(err))
	}
	resumeID := analysis.ContentID(resumeText)

	jobsDir, _ := cmd.Flags().GetString("jobs")
	jobs, err := shortlist.LoadJobs(jobsDir)
	if err != nil {
		l.Fatal("loading job descriptions", zap.Error(err))
	}

	l.Info("starting the shortlist",
		zap.String("version", version),
		zap.String("resume_id", resumeID),
		zap.Int("jobs", len(jobs)),
	)

	if len(jobs) == 0 {
		l.Info("exiting", zap.String("reason", "no job descriptions found"))
		return
	}

	// analyses are saved only when the user asks for it
	evaluator := *rt.service
	evaluator.Store = nil

	includeAnalyzed, _ := cmd.Flags().GetBool("include-analyzed")
	steps := prepareFilters(rt, resumeID, includeAnalyzed,
		shortlist.NewEvaluate(&evaluator, resumeID, resumeText, cfg.Concurrency, l))

	for _, status := range shortlist.Describe(steps) {
		l.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	candidates, err := shortlist.Run(ctx, l, steps, shortlist.FromJobs(jobs))
	if err != nil {
		l.Fatal("filtering failed", zap.Error(err))
	}

	if candidates.Len() == 0 {
		l.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	candidates.SortByScore()
	printCandidates(l, candidates)

	action := PromptSave
	autoApprove, _ := cmd.Flags().GetBool("yes")
	for {
		if !autoApprove {
			prompt := promptui.Select{
				Label: "Proceed?",
				Items: []string{PromptSave, PromptNo, PromptReportByKeywords, PromptReview, PromptJobsToFile},
			}
			_, action, err = prompt.Run()
			if err != nil {
				l.Fatal("exiting", zap.Error(err))
			}
		}

		l.Info("current shortlist", zap.Int("count", candidates.Len()))

		if err := handleAction(ctx, action, rt, candidates); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			l.Fatal("exiting", zap.Error(err))
		}

		if autoApprove || candidates.Len() == 0 {
			return
		}
	}
}

// prepareFilters orders the steps so that only jobs surviving the ID based filters are analysed.
func prepareFilters(rt *runtime, resumeID string, includeAnalyzed bool, evaluate shortlist.Filter) []shortlist.Filter {
	var history shortlist.HistoryLister
	if rt.store != nil {
		history = rt.store
	}

	steps := []shortlist.Filter{
		shortlist.NewExcludeFile(rt.config.Shortlist.ExcludeFile, rt.logger),
		shortlist.NewAnalyzedHistory(history, resumeID, includeAnalyzed, rt.logger),
		evaluate,
		shortlist.NewMinimumScore(rt.config.Shortlist.MinimumScore, rt.logger),
	}

	if history == nil && !includeAnalyzed {
		shortlist.DisableByName(steps, shortlist.AnalyzedHistoryName, "analysis store is disabled")
	}

	return steps
}

func handleAction(ctx context.Context, action string, rt *runtime, candidates *shortlist.Candidates) error {
	l := rt.logger

	switch action {
	case PromptSave:
		return save(ctx, rt, candidates)
	case PromptNo:
		l.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReview:
		return review(ctx, rt, candidates)
	case PromptReportByKeywords:
		pretty, _ := json.MarshalIndent(candidates.ReportByMissingKeyword(), "", "  ")
		l.Info(string(pretty), zap.Int("jobs count", candidates.Len()))
		return nil
	case PromptJobsToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		l.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func review(ctx context.Context, rt *runtime, candidates *shortlist.Candidates) error {
	l := rt.logger
	excludeFile := rt.config.Shortlist.ExcludeFile

	for {
		items := make([]string, 0, candidates.Len()+2)
		for _, c := range candidates.Items {
			items = append(items, fmt.Sprintf("%s %3d %s", c.Job.ID, c.Analysis.ATSScore, c.Job.Title))
		}

		if excludeFile != "" && candidates.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job to save its analysis and press ENTER",
			Items: append(items, PromptBack),
		}

		idx, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			excluded, err := shortlist.LoadExcluded(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(candidates.ToExcluded())

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			l.Info("appended to exclude file", zap.String("filename", excludeFile))

			candidates.Exclude(excluded.IDs())
		default:
			if idx >= candidates.Len() {
				return fmt.Errorf("unexpected selection %q", selected)
			}

			c := candidates.Items[idx]
			if err = save(ctx, rt, &shortlist.Candidates{Items: []*shortlist.Candidate{c}}); err != nil {
				return err
			}

			candidates.RemoveByIndex(idx)
		}
	}
}

func save(ctx context.Context, rt *runtime, candidates *shortlist.Candidates) error {
	if rt.store == nil {
		rt.logger.Warn("analysis store is disabled, nothing saved", zap.String("hint", "set store.driver to file or postgres"))
		return nil
	}

	for _, c := range candidates.Items {
		if err := rt.store.Save(ctx, c.Analysis); err != nil {
			return fmt.Errorf("failed to save analysis for %q: %w", c.Job.Title, err)
		}

		rt.logger.Info("analysis saved",
			zap.String("analysis_id", c.Analysis.ID),
			zap.String("job_title", c.Job.Title),
			zap.Int("ats_score", c.Analysis.ATSScore),
		)
	}

	rt.logger.Info("saved analyses", zap.Int("count", candidates.Len()))
	return nil
}

func printCandidates(l *zap.Logger, candidates *shortlist.Candidates) {
	for i, c := range candidates.Items {
		missing, more := util.JoinLimited(c.Analysis.MissingKeywords, missingPreview)
		fields := []zap.Field{
			zap.Int("rank", i+1),
			zap.String("job_id", c.Job.ID),
			zap.String("title", c.Job.Title),
			zap.Int("ats_score", c.Analysis.ATSScore),
			zap.String("missing", missing),
		}
		if more > 0 {
			fields = append(fields, zap.Int("missing_more", more))
		}
		l.Info("candidate", fields...)
	}
}
