package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/cvextract/internal/extraction/pipeline"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/extraction/reconcile"
)

var extractFlags struct {
	profileID      string
	promptName     string
	promptCategory string
	promptVersion  int
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run a local CV through the extraction pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.profileID, "profile", "", "user profile id (required)")
	f.StringVar(&extractFlags.promptName, "prompt", "", "task prompt name")
	f.StringVar(&extractFlags.promptCategory, "category", "", "task prompt category")
	f.IntVar(&extractFlags.promptVersion, "version", 0, "task prompt version")
	_ = extractCmd.MarkFlagRequired("profile")
}

type extractSummary struct {
	FileID            uuid.UUID `json:"fileId"`
	ExtractionEventID uuid.UUID `json:"extractionEventId"`
	Model             string    `json:"model"`
	Attempts          int       `json:"attempts"`
	SystemPrompt      string    `json:"systemPrompt"`
	TaskPrompt        string    `json:"taskPrompt"`
	Inserted          int       `json:"inserted"`
	Skipped           int       `json:"skipped"`
	Failed            int       `json:"failed"`
	Record            any       `json:"record"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	profileID, err := uuid.Parse(strings.TrimSpace(extractFlags.profileID))
	if err != nil {
		return fmt.Errorf("invalid --profile: %w", err)
	}
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	a, err := buildApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	fileID := uuid.New()
	res, err := a.Services.Pipeline.Process(cmd.Context(), pipeline.Job{
		UserID:         profileID,
		FileID:         fileID,
		FileExtension:  strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Content:        content,
		PromptName:     extractFlags.promptName,
		PromptCategory: extractFlags.promptCategory,
		PromptVersion:  extractFlags.promptVersion,
	})
	if err != nil {
		return err
	}

	sum := extractSummary{
		FileID:            fileID,
		ExtractionEventID: res.ExtractionEventID,
		Model:             res.Model,
		Attempts:          res.Attempts,
		SystemPrompt:      describePrompt(res.SystemPrompt),
		TaskPrompt:        describePrompt(res.TaskPrompt),
		Record:            res.Record,
	}
	for _, it := range res.Items {
		switch it.Status {
		case reconcile.ItemInserted:
			sum.Inserted++
		case reconcile.ItemSkipped:
			sum.Skipped++
		case reconcile.ItemFailed:
			sum.Failed++
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func describePrompt(p prompts.ResolvedPrompt) string {
	if p.Version == nil {
		return fmt.Sprintf("%s (%s)", p.Name, p.ResolvedBy)
	}
	return fmt.Sprintf("%s v%d (%s)", p.Name, *p.Version, p.ResolvedBy)
}
