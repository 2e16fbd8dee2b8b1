package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "indexmatch",
		Short: "INDEX-MATCH style lookups against reference tables",
		Long: `indexmatch looks up a column of values in a reference table and prints the
matching rows' columns, aligned to the lookup values' own index. Reference
tables are read from CSV files or from a table store created with "import".

Every flag can also be set through the environment, e.g. INDEXMATCH_DB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().String("db", "", "table store directory")
	root.PersistentFlags().Bool("verbose", false, "print execution annotations to stderr")

	root.AddCommand(
		newLookupCmd(),
		newImportCmd(),
		newTablesCmd(),
		newShowCmd(),
	)
	return root
}

// loadConfig binds the command's flags and INDEXMATCH_* environment
// variables into a fresh viper instance and decodes them into cfg.
func loadConfig(cmd *cobra.Command, cfg interface{}) error {
	v := viper.New()
	v.SetEnvPrefix("INDEXMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}
