// Package main provides the vdt command, which builds decode trees for
// instruction set descriptions and decodes instruction words with them.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/vdt/config"
	"github.com/sarchlab/vdt/decoder"
	"github.com/sarchlab/vdt/dump"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/gen"
	"github.com/sarchlab/vdt/isa"
	"github.com/sarchlab/vdt/loader"
	"github.com/sarchlab/vdt/stats"
	"github.com/sarchlab/vdt/tree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	isaPath    string
	strategy   string
	configPath string
	stats      bool
	compare    bool
	dotPath    string
	dump       bool
	elfPath    string
	synthesize bool
	verbosity  int
	words      []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("vdt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: vdt -isa <description.yaml> [options] [hexword...]\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	o := &options{}
	fs.StringVar(&o.isaPath, "isa", "", "Path to the ISA description (YAML)")
	fs.StringVar(&o.strategy, "strategy", "", "Tree generator, one of "+strings.Join(gen.Strategies(), ", "))
	fs.StringVar(&o.configPath, "config", "", "Path to configuration JSON file")
	fs.BoolVar(&o.stats, "stats", false, "Print tree statistics")
	fs.BoolVar(&o.compare, "compare", false, "Build the tree with every strategy and compare statistics")
	fs.StringVar(&o.dotPath, "dot", "", "Write the tree as a DOT graph to this file")
	fs.BoolVar(&o.dump, "dump", false, "Dump configuration and statistics")
	fs.StringVar(&o.elfPath, "elf", "", "Disassemble the executable segments of this ELF file")
	fs.BoolVar(&o.synthesize, "synthesize", false, "Synthesize exclusions for generic instructions")
	fs.IntVar(&o.verbosity, "v", 0, "Log verbosity")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.isaPath == "" {
		fs.Usage()
		return nil, fmt.Errorf("missing -isa")
	}
	o.words = fs.Args()
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	logger := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: o.verbosity})

	if err := execute(o, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(o *options, logger logr.Logger, stdout io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	s, err := loadISA(o.isaPath, cfg)
	if err != nil {
		return err
	}
	entries, err := s.Entries(isa.WithSynthesizedExclusions(o.synthesize))
	if err != nil {
		return fmt.Errorf("failed to lower %s: %w", s.Name, err)
	}
	logger.V(1).Info("loaded ISA", "name", s.Name, "order", s.Order.String(),
		"formats", len(s.Formats), "instructions", len(entries))

	if o.compare {
		return compare(entries, cfg, logger, stdout)
	}

	g, err := gen.New(cfg.Strategy, append(gen.OptionsFromConfig(cfg), gen.WithLogger(logger))...)
	if err != nil {
		return err
	}
	root, err := g.Generate(entries)
	if err != nil {
		return fmt.Errorf("failed to generate decode tree: %w", err)
	}

	st := stats.Calculate(root)
	if o.stats {
		fmt.Fprintf(stdout, "%s: %s\n", cfg.Strategy, st)
	}
	if o.dump {
		spew.Fdump(stdout, cfg, st)
	}
	if o.dotPath != "" {
		if err := writeDOT(o.dotPath, root); err != nil {
			return err
		}
	}

	d := decoder.New(root)
	if len(o.words) > 0 {
		if err := decodeWords(d, s, cfg, o.words, logger, stdout); err != nil {
			return err
		}
	}
	if o.elfPath != "" {
		return disassemble(d, s, o.elfPath, logger, stdout)
	}
	return nil
}

func loadConfig(o *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
	}
	if o.strategy != "" {
		cfg.Strategy = o.strategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadISA compiles the description, reading it in the configured byte
// order when it does not name one.
func loadISA(path string, cfg *config.Config) (*isa.ISA, error) {
	desc, err := isa.LoadDescription(path)
	if err != nil {
		return nil, err
	}
	if desc.ByteOrder == "" {
		desc.ByteOrder = cfg.ByteOrder
	}
	return isa.Compile(desc)
}

type result struct {
	strategy string
	stats    stats.Statistics
	err      error
}

// compare builds the tree with every strategy concurrently. A strategy
// that cannot handle the entries is reported, not fatal.
func compare(entries []*entry.DecodeEntry, cfg *config.Config, logger logr.Logger, stdout io.Writer) error {
	names := gen.Strategies()
	results := make([]result, len(names))

	var eg errgroup.Group
	for i, name := range names {
		eg.Go(func() error {
			g, err := gen.New(name, append(gen.OptionsFromConfig(cfg),
				gen.WithLogger(logger.WithValues("strategy", name)))...)
			if err != nil {
				return err
			}
			results[i].strategy = name
			root, err := g.Generate(entries)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].stats = stats.Calculate(root)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(stdout, "%-10s failed: %v\n", r.strategy, r.err)
			continue
		}
		fmt.Fprintf(stdout, "%-10s %s\n", r.strategy, r.stats)
	}
	return nil
}

func writeDOT(path string, root tree.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := dump.WriteDOT(f, root); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// decodeWords decodes natural instruction values given in hex. Words of
// trees up to 64 bits wide go through the decode cache.
func decodeWords(
	d *decoder.Decoder,
	s *isa.ISA,
	cfg *config.Config,
	words []string,
	logger logr.Logger,
	stdout io.Writer,
) error {
	var cache *decoder.Cache
	if d.Width() <= 64 {
		var err error
		cache, err = decoder.NewCache(d, cfg.CacheSets, cfg.CacheWays, s.Order)
		if err != nil {
			return err
		}
	}

	for _, w := range words {
		raw, ok := new(big.Int).SetString(strings.TrimPrefix(strings.ToLower(w), "0x"), 16)
		if !ok {
			return fmt.Errorf("invalid instruction word %q", w)
		}

		var (
			insn *decoder.DecodedInstruction
			err  error
		)
		if cache != nil && raw.IsUint64() {
			insn, err = cache.Decode(raw.Uint64())
		} else {
			insn, err = d.Decode(raw, s.Order)
		}
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", w, err)
			continue
		}
		fmt.Fprintln(stdout, describe(insn))
	}

	if cache != nil {
		st := cache.Stats()
		logger.V(1).Info("decode cache", "lookups", st.Lookups, "hits", st.Hits,
			"misses", st.Misses, "evictions", st.Evictions)
	}
	return nil
}

func disassemble(d *decoder.Decoder, s *isa.ISA, path string, logger logr.Logger, stdout io.Writer) error {
	img, err := loader.Load(path)
	if err != nil {
		return err
	}
	if img.ByteOrder != s.Order {
		logger.Info("ELF byte order differs from the ISA, decoding in ISA order",
			"elf", img.ByteOrder.String(), "isa", s.Order.String())
	}

	for _, seg := range img.Code() {
		for _, u := range d.Stream(seg.Data, s.Order) {
			addr := seg.VirtAddr + uint64(u.Offset)
			if u.Err != nil {
				fmt.Fprintf(stdout, "%#x: % x  <%v>\n", addr, seg.Data[u.Offset:u.Offset+u.Size], u.Err)
				continue
			}
			fmt.Fprintf(stdout, "%#x: %s\n", addr, describe(u.Instruction))
		}
	}
	return nil
}

// describe renders an instruction with its fields and access functions.
func describe(insn *decoder.DecodedInstruction) string {
	var sb strings.Builder
	sb.WriteString(insn.String())

	src, ok := insn.Entry.Source.(*isa.Instruction)
	if !ok {
		return sb.String()
	}
	for _, name := range src.Format.FieldNames() {
		if v, err := insn.Field(name); err == nil {
			fmt.Fprintf(&sb, " %s=%#x", name, v)
		}
	}
	for _, name := range src.Format.AccessNames() {
		if v, err := insn.Access(name); err == nil {
			fmt.Fprintf(&sb, " %s=%d", name, v)
		}
	}
	return sb.String()
}
