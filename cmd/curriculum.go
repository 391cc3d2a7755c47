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

// curriculumImportCmd loads a YAML course catalog into the store.
var curriculumImportCmd = &cobra.Command{
	Use:   "curriculum-import",
	Short: "Import a YAML course catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		if inputPath == "" {
			return fmt.Errorf("specify a curriculum file via --input")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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
		summary, err := importer.ImportFile(cmd.Context(), inputPath)
		if err != nil {
			return err
		}
		cmd.Printf("imported %d courses, %d content items, %d skipped\n",
			summary.Courses, summary.ContentItems, summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(curriculumImportCmd)

	curriculumImportCmd.Flags().StringP("input", "i", "", "curriculum YAML file path")
}
