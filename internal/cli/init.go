package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/rules"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing rules.yaml")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default rules.yaml with comments",
	Long: `Creates ~/.hookwatch/rules.yaml from the built-in rule set.

Sections present in the file replace the built-in section of the same name;
delete a section to keep its defaults. Verify edits with:
  hookwatch rules validate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(w io.Writer) error {
	dir, err := configDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	path := filepath.Join(dir, "rules.yaml")
	wrote, err := writeIfMissing(path, rules.DefaultRulesYAML())
	if err != nil {
		return err
	}

	if wrote {
		fmt.Fprintf(w, "Created %s\n", path)
	} else {
		fmt.Fprintf(w, "%s already exists (use --force to overwrite).\n", path)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Register the hooks with your assistant:")
	fmt.Fprintln(w, "  hookwatch install")
	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
