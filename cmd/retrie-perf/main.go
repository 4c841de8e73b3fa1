// retrie-perf builds automata for a corpus of regexes, reports build
// times and sizes, and optionally runs the whole announce/search cycle
// against an in-memory store.
//
// The corpus is a YAML file:
//
//	compression: 8
//	regexes:
//	  - "ab(c|d)+"
//	strings:
//	  - "abcd"
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"retrie.net/go/retrie"
	"retrie.net/go/retrie/dht"
)

type corpus struct {
	Compression int      `yaml:"compression"`
	Regexes     []string `yaml:"regexes"`
	Strings     []string `yaml:"strings"`
}

func main() {
	var (
		configPath string
		announce   bool
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "retrie-perf",
		Short:        "build and exercise regex automata from a corpus file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			data, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}
			var c corpus
			if err := yaml.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("parsing %s: %w", configPath, err)
			}
			if c.Compression == 0 {
				c.Compression = 1
			}
			return run(cmd.Context(), &c, announce, log)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "corpus.yaml", "corpus file")
	root.Flags().BoolVar(&announce, "announce", false, "announce into a memory store and search every string")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, c *corpus, announce bool, log *slog.Logger) error {
	for _, regex := range c.Regexes {
		start := time.Now()
		dfa, err := retrie.BuildDFA(regex, c.Compression)
		if err != nil {
			log.Error("build failed", "regex", regex, "err", err)
			continue
		}
		fmt.Printf("%q: built in %v\n", regex, time.Since(start))
		fmt.Printf("  %s\n", dfa.Stats())
		fmt.Printf("  canonical: %q\n", dfa.CanonicalRegex())
		for _, s := range c.Strings {
			fmt.Printf("  eval %q: %v\n", s, dfa.Eval(s))
		}
		if !announce {
			continue
		}
		if err := runAnnounce(ctx, regex, c, log); err != nil {
			return err
		}
	}
	return nil
}

func runAnnounce(ctx context.Context, regex string, c *corpus, log *slog.Logger) error {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return err
	}
	store := dht.NewMemoryStore()
	start := time.Now()
	_, err = dht.Announce(ctx, store, priv, regex, c.Compression, dht.WithLogger(log))
	if err != nil {
		return err
	}
	fmt.Printf("  announced %d blocks in %v\n", store.Len(), time.Since(start))
	for _, s := range c.Strings {
		found := 0
		err := dht.Search(ctx, store, s, func(ed25519.PublicKey) { found++ },
			dht.WithSearchLogger(log))
		if err != nil {
			return err
		}
		fmt.Printf("  search %q: %d peer(s)\n", s, found)
	}
	return nil
}
