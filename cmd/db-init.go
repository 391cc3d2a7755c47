/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/epireve/hey-peter-scheduler/internal/adapter/repository"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/config"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/database"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/server"
	"github.com/epireve/hey-peter-scheduler/internal/usecase"
)

// dbInitCmd initializes the database schema and optionally seeds the
// curriculum catalog from a YAML file.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create or update the database schema",
	Long:  "Applies the schema migrations. With --curriculum, seeds the course catalog from a YAML file afterwards.",
	RunE: func(cmd *cobra.Command, args []string) error {
		curriculumPath, _ := cmd.Flags().GetString("curriculum")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := database.RunMigrations(cfg); err != nil {
			return err
		}
		cmd.Println("database schema is up to date")

		if curriculumPath == "" {
			return nil
		}

		logger, err := server.NewLogger(cfg)
		if err != nil {
			return err
		}
		pool, closePool, err := database.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer closePool()

		importer := usecase.NewCurriculumImporter(repository.NewCurriculumRepository(pool), logger)
		summary, err := importer.ImportFile(cmd.Context(), curriculumPath)
		if err != nil {
			return fmt.Errorf("seed curriculum: %w", err)
		}
		cmd.Printf("curriculum seeded: %d courses, %d content items, %d skipped\n",
			summary.Courses, summary.ContentItems, summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("curriculum", "", "YAML curriculum file to seed after migrating")
}
