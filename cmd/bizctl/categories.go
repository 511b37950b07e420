package main

import (
	"fmt"

	"bizdash/internal/worker"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Expense categories",
	RunE:  runCategories,
}

var categoriesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create the categories listed in the spreadsheet that the user does not have yet",
	RunE:  runCategoriesImport,
}

func init() {
	categoriesCmd.AddCommand(categoriesImportCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	cats, err := a.cats.List(cmd.Context(), flagUser)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.ID.String(), c.Name, c.Color})
	}
	printTable("CATEGORIES", []string{"ID", "Name", "Color"}, rows)
	return nil
}

func runCategoriesImport(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	if a.backend.Categories == nil {
		return fmt.Errorf("no category source configured: set GOOGLE_SPREADSHEET_ID or use the memory backend")
	}
	created, err := worker.NewCategorySync(a.backend.Categories, a.cats).Sync(cmd.Context(), flagUser)
	if err != nil {
		return err
	}
	a.logger.Info("Categories imported", "user_id", flagUser, "created", created)
	return nil
}
