package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func SchemaCmd() *cobra.Command {
	var (
		dir  string
		down bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema",
		Long:  "Print the migration SQL that serve applies on startup, in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(dir, down)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "Migrations directory")
	cmd.Flags().BoolVar(&down, "down", false, "Print down migrations instead of up")

	return cmd
}

func runSchema(dir string, down bool) error {
	suffix := ".up.sql"
	if down {
		suffix = ".down.sql"
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", suffix, dir)
	}

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		fmt.Printf("-- %s\n%s\n", name, strings.TrimRight(string(content), "\n"))
	}

	return nil
}
