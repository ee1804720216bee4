package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/suderio/dreamland/internal/data"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Export the built-in catalog for editing",
	Long: `Writes the embedded content catalog (creatures, items, skills, recipes and
so on) as yaml into a directory. Point --data-dir at it, or drop the files in
a profile's data directory, to override the built-in content.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "data"
		if len(args) == 1 {
			dir = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")

		var targets []string
		for _, s := range data.Sections {
			if on, _ := cmd.Flags().GetBool(s); on {
				targets = append(targets, s)
			}
		}
		if len(targets) == 0 {
			targets = data.Sections
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		fmt.Printf("Exporting catalog to: %s\n", dir)

		bar := progressbar.Default(int64(len(targets)), "Exporting")
		var skipped []string
		for _, s := range targets {
			path := filepath.Join(dir, s+".yaml")
			if _, err := os.Stat(path); err == nil && !force {
				skipped = append(skipped, path)
				_ = bar.Add(1)
				continue
			}
			raw, err := data.Embedded(s)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, raw, 0o644); err != nil {
				return err
			}
			_ = bar.Add(1)
		}

		for _, p := range skipped {
			fmt.Printf("Kept existing %s (use --force to overwrite)\n", p)
		}
		fmt.Println("\nCatalog export complete!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	for _, s := range data.Sections {
		initCmd.Flags().Bool(s, false, fmt.Sprintf("Export %s.yaml only", s))
	}
}
