package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/nornicexpr/pkg/config"
	"github.com/orneryd/nornicexpr/pkg/expression"
	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/storage"
	"github.com/orneryd/nornicexpr/pkg/value"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		cfg        *config.Config
		logCloser  io.Closer
	)

	rootCmd := &cobra.Command{
		Use:   "nornicexpr",
		Short: "nornicexpr - graph expression evaluator",
		Long: `nornicexpr evaluates graph query expressions over typed values.

Expressions are written as YAML or JSON documents and may read variables,
the properties of a vertex or edge held in a graph store, and call any of
the built-in functions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if logCloser, err = cfg.Logging.Apply(); err != nil {
				return err
			}
			if err := cfg.Runtime.ApplyRuntime(); err != nil {
				return err
			}
			logrus.WithField("config", cfg.String()).Debug("configuration loaded")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	conf := func() *config.Config { return cfg }

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nornicexpr v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newEvalCmd(conf), newFunctionsCmd(conf), newLoadCmd(conf))
	return rootCmd
}

// ============================================================================
// eval
// ============================================================================

type evalOptions struct {
	expr      string
	graphFile string
	useStore  bool
	vertex    string
	edge      string
	vars      []string
	output    string
}

func newEvalCmd(conf func() *config.Config) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval [expression-file]",
		Short: "Evaluate expression documents",
		Long: `Evaluate one expression, or a sequence of expressions, read from a file,
from --expr, or from stdin when the file is "-".

Examples:
  nornicexpr eval --expr '{op: "*", left: {op: "+", left: 10, right: 5}, right: 2}'
  nornicexpr eval --graph graph.yaml --vertex p1 --expr '{prop: name, tag: player}'
  nornicexpr eval --var limit=30 exprs.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, conf(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.expr, "expr", "e", "", "Inline expression document")
	cmd.Flags().StringVar(&opts.graphFile, "graph", "", "Graph document loaded into a memory store before evaluating")
	cmd.Flags().BoolVar(&opts.useStore, "store", false, "Read vertices and edges from the configured storage engine")
	cmd.Flags().StringVar(&opts.vertex, "vertex", "", "Current vertex id")
	cmd.Flags().StringVar(&opts.edge, "edge", "", "Current edge as src,dst,type[,rank]")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "Variable binding name=value (value in YAML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or yaml")
	return cmd
}

func runEval(cmd *cobra.Command, cfg *config.Config, opts *evalOptions, args []string) error {
	data, err := readExpressions(cmd, opts, args)
	if err != nil {
		return err
	}
	nodes, err := expression.DecodeAll(data)
	if err != nil {
		return err
	}

	base := expression.NewBasicContext(functions.NewRegistry(cfg.FunctionConfig()))
	base.SetCache(cfg.Cache.NewCache())
	for _, binding := range opts.vars {
		name, v, err := parseBinding(binding)
		if err != nil {
			return err
		}
		base.SetVariable(name, v)
	}

	var ctx expression.Context = base
	if opts.graphFile != "" || opts.useStore {
		engine, err := openEvalEngine(cfg, opts)
		if err != nil {
			return err
		}
		defer engine.Close()

		gctx := storage.NewSource(engine).Context(base)
		if opts.vertex != "" {
			gctx.SetVertexID(parseVID(opts.vertex))
		}
		if opts.edge != "" {
			k, err := parseEdgeKey(opts.edge)
			if err != nil {
				return err
			}
			gctx.SetEdgeKey(k.Src, k.Dst, k.EdgeType, k.Rank)
		}
		ctx = gctx
	} else if opts.vertex != "" || opts.edge != "" {
		return fmt.Errorf("--vertex and --edge need --graph or --store")
	}

	results, err := expression.EvaluateBatch(nodes, ctx)
	if err != nil {
		return err
	}
	return writeResults(cmd.OutOrStdout(), opts.output, results)
}

func readExpressions(cmd *cobra.Command, opts *evalOptions, args []string) ([]byte, error) {
	switch {
	case opts.expr != "" && len(args) > 0:
		return nil, fmt.Errorf("use either --expr or an expression file, not both")
	case opts.expr != "":
		return []byte(opts.expr), nil
	case len(args) == 0:
		return nil, fmt.Errorf("no expression: pass --expr or a file")
	case args[0] == "-":
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading expressions: %w", err)
	}
	return data, nil
}

func openEvalEngine(cfg *config.Config, opts *evalOptions) (storage.Engine, error) {
	if opts.graphFile == "" {
		return openEngine(cfg.Storage)
	}
	engine := storage.NewMemoryEngine()
	if _, err := storage.LoadGraphFile(engine, opts.graphFile); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

// parseBinding splits name=value and reads value as a YAML data value.
func parseBinding(s string) (string, value.Value, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid --var %q: want name=value", s)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return "", nil, fmt.Errorf("invalid --var %q: %w", s, err)
	}
	if len(doc.Content) == 0 {
		return name, value.NullValue, nil
	}
	v, err := expression.DecodeValue(doc.Content[0])
	if err != nil {
		return "", nil, fmt.Errorf("invalid --var %q: %w", s, err)
	}
	return name, v, nil
}

// parseVID reads an integer id when the text is one, a string id otherwise.
func parseVID(s string) value.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	return value.String(s)
}

func parseEdgeKey(s string) (storage.EdgeKey, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 3 || len(parts) > 4 {
		return storage.EdgeKey{}, fmt.Errorf("invalid --edge %q: want src,dst,type[,rank]", s)
	}
	k := storage.EdgeKey{Src: parseVID(parts[0]), Dst: parseVID(parts[1]), EdgeType: parts[2]}
	if len(parts) == 4 {
		rank, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return storage.EdgeKey{}, fmt.Errorf("invalid --edge rank %q", parts[3])
		}
		k.Rank = rank
	}
	return k, nil
}

func writeResults(w io.Writer, format string, results []value.Value) error {
	switch format {
	case "text":
		for _, v := range results {
			fmt.Fprintln(w, renderValue(v))
		}
		return nil
	case "yaml":
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range results {
			y, err := expression.EncodeValue(v)
			if err != nil {
				y = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: renderValue(v)}
			}
			seq.Content = append(seq.Content, y)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(seq); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format: %q", format)
}

// renderValue prints strings quoted so that "1" and 1 differ.
func renderValue(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return strconv.Quote(string(s))
	}
	if v == nil {
		return value.EmptyValue.String()
	}
	return v.String()
}

// ============================================================================
// functions
// ============================================================================

func newFunctionsCmd(conf func() *config.Config) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "functions [name...]",
		Short: "List built-in functions or describe some of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := functions.NewRegistry(conf().FunctionConfig())
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, name := range args {
					desc, err := reg.Describe(name)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, desc)
				}
				return nil
			}
			for _, cat := range reg.Categories() {
				if category != "" && !strings.EqualFold(category, string(cat)) {
					continue
				}
				ds := reg.ListByCategory(cat)
				if len(ds) == 0 {
					continue
				}
				fmt.Fprintf(out, "%s:\n", cat)
				for _, d := range ds {
					fmt.Fprintf(out, "  %-28s %s\n", d.Signature(), d.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list this category")
	return cmd
}

// ============================================================================
// load
// ============================================================================

func newLoadCmd(conf func() *config.Config) *cobra.Command {
	var export string
	cmd := &cobra.Command{
		Use:   "load [graph-file...]",
		Short: "Load graph documents into the configured storage engine",
		Long: `Load graph documents into the storage engine selected by the config
(storage.engine, NORNICEXPR_STORAGE_ENGINE). With --export the engine
contents are written back out as a single document afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && export == "" {
				return fmt.Errorf("nothing to do: pass graph files or --export")
			}
			engine, err := openEngine(conf().Storage)
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			for _, path := range args {
				stats, err := storage.LoadGraphFile(engine, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d vertices, %d edges\n", path, stats.Vertices, stats.Edges)
			}
			if export != "" {
				if err := storage.SaveGraphFile(engine, export); err != nil {
					return err
				}
				fmt.Fprintf(out, "exported to %s\n", export)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&export, "export", "", "Write the engine contents to this file")
	return cmd
}

// openEngine opens the engine named by the storage config.
func openEngine(sc config.StorageConfig) (storage.Engine, error) {
	switch sc.Engine {
	case config.EngineBadger:
		return storage.NewBadgerEngineWithOptions(storage.BadgerOptions{
			DataDir:    sc.DataDir,
			InMemory:   sc.InMemory,
			SyncWrites: sc.SyncWrites,
			LowMemory:  sc.LowMemory,
			Logger:     logrus.WithField("component", "badger"),
		})
	case config.EngineMemory, "":
		return storage.NewMemoryEngine(), nil
	}
	return nil, fmt.Errorf("unknown storage engine: %q", sc.Engine)
}
