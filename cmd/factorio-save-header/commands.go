package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knoxfighter/factorio-lib/internal/savedir"
	"github.com/knoxfighter/factorio-lib/pkg"
	"github.com/knoxfighter/factorio-lib/pkg/render"
	"github.com/knoxfighter/factorio-lib/pkg/saves/container"
	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
)

var errSomeFailed = errors.New("one or more saves could not be read")

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <save.zip>...",
		Short: "Decode and print save headers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return readAndRender(cmd.Context(), args)
		},
	}
	cmd.Flags().StringP("format", "f", "", "Output format (text, json, yaml, cbor, toml)")
	cmd.Flags().String("digest", "", "Add a header digest (sha256, sha512, adler32, blake3)")
	cmd.Flags().IntP("workers", "j", 0, "Saves decoded in parallel (0 = one per CPU)")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List saves in the save directory",
		Long: `List the saves in dir, or in the game's save directory when dir is omitted.
The directory can also be set with saves_dir in the config or FACTORIO_SAVES_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := savedir.GetSavesDir(cfg.SavesDir)
			if len(args) == 1 {
				dir = args[0]
			}
			saves, err := savedir.List(dir)
			if err != nil {
				return err
			}
			logger.Debug("📂 Listing saves", "dir", dir, "count", len(saves))

			if cfg.Format != string(render.FormatText) {
				paths := make([]string, len(saves))
				for i, s := range saves {
					paths[i] = s.Path
				}
				return readAndRender(cmd.Context(), paths)
			}

			return listText(cmd.Context(), saves)
		},
	}
	cmd.Flags().StringP("format", "f", "", "Output format (text, json, yaml, cbor, toml)")
	cmd.Flags().IntP("workers", "j", 0, "Saves decoded in parallel (0 = one per CPU)")
	return cmd
}

func newErasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eras",
		Short: "Print the decoding rules of every supported era",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rules []header.Rules
			for _, era := range header.Eras() {
				r, err := header.RulesFor(era)
				if err != nil {
					return err
				}
				rules = append(rules, r)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), render.Rules(rules))
			return err
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <save.zip> <checksum>",
		Short: "Check a save header against a digest from show --digest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := batchOptions()
			if err != nil {
				return err
			}
			if err := pkg.VerifyHeaderWithOptions(args[0], args[1], opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ header matches")
			return nil
		},
	}
}

// batchOptions builds decode options from the loaded config.
func batchOptions() (pkg.BatchOptions, error) {
	decoder, err := cfg.DecoderOptions()
	if err != nil {
		return pkg.BatchOptions{}, err
	}
	entryOps, err := cfg.EntryOperations()
	if err != nil {
		return pkg.BatchOptions{}, err
	}
	opts := pkg.BatchOptions{
		Workers:         cfg.Workers,
		Decoder:         decoder,
		Logger:          logger,
		EntryOperations: entryOps,
	}
	if cfg.Digest != "" {
		algo, err := container.ParseAlgorithm(cfg.Digest)
		if err != nil {
			return opts, err
		}
		opts.Digest = &algo
	}
	return opts, nil
}

func readAll(ctx context.Context, paths []string) ([]pkg.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts, err := batchOptions()
	if err != nil {
		return nil, err
	}
	return pkg.GetHeadersWithOptions(ctx, paths, opts)
}

func readAndRender(ctx context.Context, paths []string) error {
	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	results, err := readAll(ctx, paths)
	if err != nil {
		return err
	}

	var docs []render.Document
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			logger.Error("❌ Failed to read save", "path", result.Path, "error", result.Err)
			failed++
			continue
		}
		docs = append(docs, render.Document{Path: result.Path, Digest: result.Digest, Header: result.Header})
	}

	if len(docs) > 0 {
		if err := render.RenderDocuments(os.Stdout, format, docs); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w (%d of %d)", errSomeFailed, failed, len(results))
	}
	return nil
}

func listText(ctx context.Context, saves []savedir.Save) error {
	paths := make([]string, len(saves))
	for i, s := range saves {
		paths[i] = s.Path
	}
	results, err := readAll(ctx, paths)
	if err != nil {
		return err
	}

	width := len("NAME")
	for _, s := range saves {
		width = max(width, len(s.Name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s  %-12s  %-7s  %4s  %s\n", width, "NAME", "VERSION", "ERA", "MODS", "MODIFIED")
	for i, s := range saves {
		modified := s.ModTime.Format("2006-01-02 15:04")
		if results[i].Err != nil {
			logger.Warn("Skipping unreadable save", "path", s.Path, "error", results[i].Err)
			fmt.Fprintf(&sb, "%-*s  %-12s  %-7s  %4s  %s\n", width, s.Name, "?", "?", "?", modified)
			continue
		}
		h := results[i].Header
		fmt.Fprintf(&sb, "%-*s  %-12s  %-7s  %4d  %s\n", width, s.Name, h.Version.Triple(), h.Era, len(h.Mods), modified)
	}

	_, err = fmt.Fprint(os.Stdout, sb.String())
	return err
}
