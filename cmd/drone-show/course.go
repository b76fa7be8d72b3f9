package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/sim"
)

var (
	courseSeed   int64
	courseSQLite string
	courseJSON   bool
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Generate a VR obstacle course",
	Long:  "course builds the deterministic obstacle course for a seed and prints it or stores it in a SQLite recording.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := physics.GenerateCourse(courseSeed)
		if courseSQLite != "" {
			rec, err := sim.NewSQLiteRecorder(courseSQLite)
			if err != nil {
				return err
			}
			defer rec.Close()
			if err := rec.WriteCourse(c.Seed, c.Records()); err != nil {
				return err
			}
		}
		return printCourse(cmd.OutOrStdout(), c, courseJSON)
	},
}

// printCourse writes one JSON line per obstacle, or a per-kind summary.
func printCourse(out io.Writer, c physics.Course, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		for _, rec := range c.Records() {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	counts := c.Counts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(out, "course seed %d: %d obstacles\n", c.Seed, len(c.Obstacles))
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-6s %d\n", k, counts[k])
	}
	return nil
}

func init() {
	courseCmd.Flags().Int64Var(&courseSeed, "seed", 42, "Course seed")
	courseCmd.Flags().StringVar(&courseSQLite, "sqlite", "", "Also store the course in this SQLite recording")
	courseCmd.Flags().BoolVar(&courseJSON, "json", false, "Print every obstacle as a JSON line")
}
