package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sefariaproxy/internal/admin"
	"sefariaproxy/internal/app"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/translationcache"
)

// cacheSelection picks which caches a maintenance command touches.
// Neither flag set means both.
type cacheSelection struct {
	translation   bool
	pronunciation bool
}

func (s cacheSelection) both() bool { return !s.translation && !s.pronunciation }

func (s cacheSelection) translations() bool { return s.translation || s.both() }

func (s cacheSelection) pronunciations() bool { return s.pronunciation || s.both() }

func newCacheCmd() *cobra.Command {
	var sel cacheSelection

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation and pronunciation caches",
	}
	cmd.PersistentFlags().BoolVar(&sel.translation, "translation", false, "only the translation cache")
	cmd.PersistentFlags().BoolVar(&sel.pronunciation, "pronunciation", false, "only the pronunciation cache")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCaches(cmd.Context(), func(c *app.Caches) error {
				return printStats(cmd.Context(), cmd.OutOrStdout(), c, sel)
			})
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Evict least recently used pronunciations down to the low-water mark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCaches(cmd.Context(), func(c *app.Caches) error {
				res, err := c.Pronunciations.Purge(cmd.Context(), c.Pronunciations.MaxSizeBytes())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), admin.PurgeMessage(res))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCaches(cmd.Context(), func(c *app.Caches) error {
				return clearCaches(cmd.Context(), cmd.OutOrStdout(), c, sel)
			})
		},
	}

	cmd.AddCommand(statsCmd, purgeCmd, clearCmd)
	return cmd
}

func withCaches(ctx context.Context, fn func(*app.Caches) error) (err error) {
	result, err := loadConfig()
	if err != nil {
		return err
	}
	caches, err := app.OpenCaches(ctx, result.Config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := caches.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(caches)
}

func printStats(ctx context.Context, w io.Writer, c *app.Caches, sel cacheSelection) error {
	if sel.translations() {
		stats, err := c.Translations.Stats(ctx)
		if err != nil {
			return err
		}
		_, total, err := c.Translations.List(ctx, translationcache.ListParams{Limit: 1})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Translation cache\n  Entries:   %d\n  Hits:      %d\n  Misses:    %d\n  Malformed: %d\n",
			total, stats.Hits, stats.Misses, stats.MalformedHits)
	}
	if sel.pronunciations() {
		stats, err := c.Pronunciations.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Pronunciation cache\n  Files:     %d\n  Size:      %s of %s\n  Hits:      %d\n  Misses:    %d\n",
			stats.TotalFiles,
			humanize.IBytes(uint64(stats.TotalSizeBytes)),
			humanize.IBytes(uint64(c.Pronunciations.MaxSizeBytes())),
			stats.Hits, stats.Misses)
	}
	return nil
}

func clearCaches(ctx context.Context, w io.Writer, c *app.Caches, sel cacheSelection) error {
	if sel.translations() {
		n, err := c.Translations.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Cleared %d translation cache entries.\n", n)
	}
	if sel.pronunciations() {
		res, err := c.Pronunciations.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, clearMessage(res))
	}
	return nil
}

func clearMessage(res pronunciation.ClearResult) string {
	msg := fmt.Sprintf("Cleared %d pronunciation cache entries.", res.DeletedCount)
	if res.BlobFailures > 0 {
		msg += fmt.Sprintf(" %d audio files could not be deleted.", res.BlobFailures)
	}
	return msg
}
