package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
	"github.com/wbrown/janus-indexmatch/frame/codec"
	"github.com/wbrown/janus-indexmatch/frame/storage"
	"github.com/wbrown/janus-indexmatch/indexmatch"
)

type lookupConfig struct {
	DB          string   `mapstructure:"db"`
	Verbose     bool     `mapstructure:"verbose"`
	Values      string   `mapstructure:"values"`
	Column      string   `mapstructure:"column"`
	IndexColumn string   `mapstructure:"index-column"`
	Table       string   `mapstructure:"table"`
	Name        string   `mapstructure:"name"`
	Left        string   `mapstructure:"left"`
	Right       string   `mapstructure:"right"`
	Return      []string `mapstructure:"return"`
	Concat      bool     `mapstructure:"concat"`
	FanOut      string   `mapstructure:"fanout"`
	Format      string   `mapstructure:"format"`
	Parallel    int      `mapstructure:"parallel"`
	ChunkSize   int      `mapstructure:"chunk-size"`
	RawStrings  bool     `mapstructure:"raw-strings"`
	Missing     string   `mapstructure:"missing"`
}

type storeConfig struct {
	DB          string `mapstructure:"db"`
	Verbose     bool   `mapstructure:"verbose"`
	Name        string `mapstructure:"name"`
	IndexColumn string `mapstructure:"index-column"`
	RawStrings  bool   `mapstructure:"raw-strings"`
	Missing     string `mapstructure:"missing"`
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up a column of values in a reference table",
		Example: `  indexmatch lookup --values orders.csv --column city_id --table cities.csv --right id --return name,country
  indexmatch lookup --values orders.csv --column city_id --db ./tables --name cities --right id --return name --concat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg lookupConfig
			if err := loadConfig(cmd, &cfg); err != nil {
				return err
			}
			return runLookup(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("values", "", "CSV file holding the lookup values")
	f.String("column", "", "column of --values to look up")
	f.String("index-column", "", "column of --values to use as the index")
	f.String("table", "", "reference table CSV file")
	f.String("name", "", "reference table name in --db")
	f.String("left", "", "name of the lookup column in the output (default: --column)")
	f.String("right", "", "reference column to search (default: --left)")
	f.StringSlice("return", nil, "reference columns to return")
	f.Bool("concat", false, "prepend the lookup values to the result")
	f.String("fanout", "reject", "duplicate match policy: reject, first, last or expand")
	f.String("format", "markdown", "output format: markdown or csv")
	f.Int("parallel", 0, "number of workers; 0 runs sequentially")
	f.Int("chunk-size", indexmatch.DefaultChunkSize, "lookup values per parallel task")
	f.Bool("raw-strings", false, "read every CSV cell as a string")
	f.String("missing", "", "CSV token for missing cells (default: empty cell)")
	return cmd
}

func runLookup(cmd *cobra.Command, cfg lookupConfig) error {
	if cfg.Values == "" || cfg.Column == "" {
		return errors.New("--values and --column are required")
	}
	if len(cfg.Return) == 0 {
		return errors.New("--return needs at least one column")
	}

	policy, err := indexmatch.ParseFanOutPolicy(cfg.FanOut)
	if err != nil {
		return err
	}

	handler := verboseHandler(cmd, cfg.Verbose)

	values, err := readValues(cfg)
	if err != nil {
		return err
	}

	ref, err := loadReference(cfg, handler)
	if err != nil {
		return err
	}

	key := indexmatch.JoinKey{Left: cfg.Left, Right: cfg.Right}
	if key.Left == "" {
		key.Left = cfg.Column
	}
	if key.Right == "" {
		key.Right = key.Left
	}

	opts := []indexmatch.Option{
		indexmatch.WithConcatMatches(cfg.Concat),
		indexmatch.WithFanOut(policy),
		indexmatch.WithHandler(handler),
		indexmatch.WithWorkers(cfg.Parallel),
		indexmatch.WithChunkSize(cfg.ChunkSize),
	}

	var result *frame.Table
	if cfg.Parallel > 0 {
		result, err = indexmatch.LookupParallel(cmd.Context(), values, ref, cfg.Return, key, opts...)
	} else {
		result, err = indexmatch.Lookup(values, ref, cfg.Return, key, opts...)
	}
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), result, cfg.Format, cfg.Missing)
}

func readValues(cfg lookupConfig) (frame.Series, error) {
	f, err := os.Open(cfg.Values)
	if err != nil {
		return frame.Series{}, fmt.Errorf("open values: %w", err)
	}
	defer f.Close()

	values, err := codec.ReadSeriesCSV(f, cfg.Column, codec.ReadOptions{
		IndexColumn:  cfg.IndexColumn,
		RawStrings:   cfg.RawStrings,
		MissingToken: cfg.Missing,
	})
	if err != nil {
		return frame.Series{}, fmt.Errorf("read values %s: %w", cfg.Values, err)
	}
	return values, nil
}

func loadReference(cfg lookupConfig, handler annotations.Handler) (*frame.Table, error) {
	switch {
	case cfg.Table != "" && cfg.Name != "":
		return nil, errors.New("use either --table or --name, not both")
	case cfg.Table != "":
		return readTableFile(cfg.Table, codec.ReadOptions{
			RawStrings:   cfg.RawStrings,
			MissingToken: cfg.Missing,
		})
	case cfg.Name != "":
		store, err := openStore(cfg.DB, handler)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Get(cfg.Name)
	default:
		return nil, errors.New("a reference table is required: --table FILE or --db DIR --name NAME")
	}
}

func readTableFile(path string, opts codec.ReadOptions) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	t, err := codec.ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return t, nil
}

func openStore(dir string, handler annotations.Handler) (*storage.BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("--db is required")
	}
	return storage.NewBadgerStore(dir, handler)
}

func writeResult(w io.Writer, t *frame.Table, format, missing string) error {
	switch format {
	case "markdown", "md", "":
		_, err := fmt.Fprintln(w, frame.NewTableFormatter().Format(t))
		return err
	case "csv":
		return codec.WriteCSV(w, t, codec.WriteOptions{
			IncludeIndex: true,
			IndexName:    "index",
			MissingToken: missing,
		})
	default:
		return fmt.Errorf("unknown format %q (use markdown or csv)", format)
	}
}

func verboseHandler(cmd *cobra.Command, verbose bool) annotations.Handler {
	if !verbose {
		return nil
	}
	return annotations.NewOutputFormatter(cmd.ErrOrStderr()).Handle
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a CSV reference table under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg storeConfig
			if err := loadConfig(cmd, &cfg); err != nil {
				return err
			}
			if cfg.Name == "" {
				return errors.New("--name is required")
			}

			t, err := readTableFile(args[0], codec.ReadOptions{
				IndexColumn:  cfg.IndexColumn,
				RawStrings:   cfg.RawStrings,
				MissingToken: cfg.Missing,
			})
			if err != nil {
				return err
			}

			store, err := openStore(cfg.DB, verboseHandler(cmd, cfg.Verbose))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(cfg.Name, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into %q\n", t.Len(), cfg.Name)
			return nil
		},
	}
	cmd.Flags().String("name", "", "table name")
	cmd.Flags().String("index-column", "", "column to use as the index")
	cmd.Flags().Bool("raw-strings", false, "read every CSV cell as a string")
	cmd.Flags().String("missing", "", "CSV token for missing cells (default: empty cell)")
	return cmd
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List stored tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg storeConfig
			if err := loadConfig(cmd, &cfg); err != nil {
				return err
			}

			store, err := openStore(cfg.DB, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg storeConfig
			if err := loadConfig(cmd, &cfg); err != nil {
				return err
			}
			if cfg.Name == "" {
				return errors.New("--name is required")
			}

			store, err := openStore(cfg.DB, verboseHandler(cmd, cfg.Verbose))
			if err != nil {
				return err
			}
			defer store.Close()

			t, err := store.Get(cfg.Name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), frame.NewTableFormatter().Format(t))
			return err
		},
	}
	cmd.Flags().String("name", "", "table name")
	return cmd
}
