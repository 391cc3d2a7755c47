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
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/epireve/hey-peter-scheduler/internal/app"
	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// scheduleCmd runs one scheduling pass from the command line and prints the
// result as JSON. Useful for cron-driven batch runs and dry-run inspection.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run one scheduling pass and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		students, _ := cmd.Flags().GetStringSlice("students")
		days, _ := cmd.Flags().GetInt("days")

		studentIDs := splitIDs(students)
		if level == "" && len(studentIDs) == 0 {
			return fmt.Errorf("specify --level or --students")
		}
		if days < 1 {
			days = 14
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		now := time.Now()
		resp := container.Engine.ScheduleClasses(cmd.Context(), entity.SchedulingRequest{
			StudentIDs: studentIDs,
			Level:      entity.ParseCourseLevel(level),
			TimeRange: entity.TimeRange{
				StartDate: now,
				EndDate:   now.AddDate(0, 0, days),
			},
		})

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if !resp.Success {
			return fmt.Errorf("scheduling failed: %s", resp.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("level", "", "schedule every student at this level")
	scheduleCmd.Flags().StringSlice("students", nil, "schedule the listed student IDs")
	scheduleCmd.Flags().Int("days", 14, "scheduling window in days from now")
}
