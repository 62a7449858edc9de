package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/cvextract/internal/app"
	"github.com/yungbote/cvextract/internal/data/db"
	promptrepo "github.com/yungbote/cvextract/internal/data/repos/prompt"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage stored prompt templates",
}

var promptsSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Upsert prompts from a YAML seed file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsSeed,
}

var promptsListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List stored prompts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsList,
}

func init() {
	promptsCmd.AddCommand(promptsSeedCmd, promptsListCmd)
}

// openPromptRepo connects to the database only; prompt maintenance needs no
// LLM credentials or storage.
func openPromptRepo() (promptrepo.PromptRepo, func(), error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	svc, err := db.NewService(cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = svc.Close()
		log.Sync()
	}
	if cfg.AutoMigrate {
		if err := svc.AutoMigrateAll(); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return promptrepo.NewPromptRepo(svc.DB(), log), closeFn, nil
}

func runPromptsSeed(cmd *cobra.Command, args []string) error {
	path := "configs/prompts.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	rows, err := prompts.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	repo, closeFn, err := openPromptRepo()
	if err != nil {
		return err
	}
	defer closeFn()
	if err := repo.Upsert(cmd.Context(), nil, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d prompts from %s\n", len(rows), path)
	return nil
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	category := ""
	if len(args) == 1 {
		category = args[0]
	}
	repo, closeFn, err := openPromptRepo()
	if err != nil {
		return err
	}
	defer closeFn()
	rows, err := repo.List(cmd.Context(), nil, category)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tVERSION\tUPDATED")
	for _, p := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Category, p.Version, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
