package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundalike/soundalike/internal/app"
	"github.com/soundalike/soundalike/internal/audio"
	"github.com/soundalike/soundalike/internal/recommender"
)

var (
	ingestTitle   string
	ingestArtist  string
	ingestGenres  []string
	ingestRef     string
	ingestTimeout time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [audio files...]",
	Short: "Fingerprint audio files and append them to the catalog",
	Long: `Extract a feature vector from each decoded audio file and append
it to the track catalog. Extraction or schema failures on one file are
reported and do not abort the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestTitle, "title", "",
		"track title (single file only; defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestArtist, "artist", "",
		"track artist")
	ingestCmd.Flags().StringSliceVar(&ingestGenres, "genres", nil,
		"genre tags, comma separated")
	ingestCmd.Flags().StringVar(&ingestRef, "ref", "",
		"canonical reference link for the track")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute,
		"overall ingestion timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	items := make([]recommender.BatchItem, 0, len(args))
	for _, path := range args {
		signal, sampleRate, err := audio.ReadFile(path, a.Config.Audio.SampleRate)
		if err != nil {
			fmt.Printf("SKIP  %s: %v\n", path, err)
			continue
		}

		title := ingestTitle
		if title == "" || len(args) > 1 {
			title = baseName(path)
		}

		items = append(items, recommender.BatchItem{
			Signal:     signal,
			SampleRate: sampleRate,
			Meta: recommender.TrackMeta{
				Title:  title,
				Artist: ingestArtist,
				Genres: ingestGenres,
				Ref:    ingestRef,
			},
		})
	}

	results := a.Service.IngestBatch(ctx, items)

	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", items[i].Meta.Title, r.Err)
			continue
		}
		fmt.Printf("OK    %s (%s)\n", r.Entry.Title, r.Entry.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tracks failed to ingest", failed, len(items))
	}
	return nil
}

func baseName(path string) string {
	name := path
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
