package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description and print the analysis as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .txt, .md)")
	scoreCmd.Flags().String("jd", "", "job description file")
	scoreCmd.Flags().String("jd-text", "", "job description text")
	scoreCmd.Flags().StringP("title", "t", "", "job title stored with the analysis")
	scoreCmd.Flags().Bool("no-save", false, "do not store the analysis")

	scoreCmd.MarkFlagRequired("resume")
	scoreCmd.MarkFlagsMutuallyExclusive("jd", "jd-text")
	scoreCmd.MarkFlagsOneRequired("jd", "jd-text")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

	noSave, _ := cmd.Flags().GetBool("no-save")
	rt := setup(ctx, !noSave)
	defer rt.close()

	resumePath, _ := cmd.Flags().GetString("resume")
	resumeText, err := readDocument(resumePath)
	if err != nil {
		rt.logger.Fatal("reading resume", zap.String("path", resumePath), zap.Error(err))
	}

	jobDescription, _ := cmd.Flags().GetString("jd-text")
	if jdPath, _ := cmd.Flags().GetString("jd"); jdPath != "" {
		jobDescription, err = readDocument(jdPath)
		if err != nil {
			rt.logger.Fatal("reading job description", zap.String("path", jdPath), zap.Error(err))
		}
	}

	title, _ := cmd.Flags().GetString("title")

	result, err := rt.service.Analyze(ctx, analysis.Input{
		ResumeID:       analysis.ContentID(resumeText),
		JobTitle:       title,
		ResumeText:     resumeText,
		JobDescription: strings.TrimSpace(jobDescription),
	})
	if err != nil {
		rt.logger.Fatal("analyzing resume", zap.Error(err))
	}

	rt.logger.Info("analysis completed",
		zap.String("id", result.ID),
		zap.Int("ats_score", result.ATSScore),
		zap.Bool("saved", rt.store != nil),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		rt.logger.Fatal("printing analysis", zap.Error(err))
	}
}
