package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundalike/soundalike/internal/app"
	"github.com/soundalike/soundalike/internal/audio"
	"github.com/soundalike/soundalike/internal/recommender"
	"github.com/soundalike/soundalike/pkg/recommend"
)

var (
	recommendTrackID    string
	recommendAudioFile  string
	recommendGenres     []string
	recommendK          int
	recommendStrictness int
	recommendShadow     bool
	recommendTimeout    time.Duration
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend tracks similar to a catalog track or an audio file",
	Long: `Retrieve the k most similar catalog tracks for a query, re-ranked
by genre compatibility. The query is either a track already in the catalog
(--track) or a decoded audio file (--audio).`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendTrackID, "track", "",
		"query by catalog track id")
	recommendCmd.Flags().StringVar(&recommendAudioFile, "audio", "",
		"query by audio file")
	recommendCmd.Flags().StringSliceVar(&recommendGenres, "genres", nil,
		"genre tags for an audio query, comma separated")
	recommendCmd.Flags().IntVarP(&recommendK, "k", "k", 0,
		"number of recommendations (default from config)")
	recommendCmd.Flags().IntVar(&recommendStrictness, "strictness", -1,
		"genre penalty strictness, 0 (off) to 3 (default from config)")
	recommendCmd.Flags().BoolVar(&recommendShadow, "shadow", false,
		"compute penalties without applying them to the ranking")
	recommendCmd.Flags().DurationVar(&recommendTimeout, "timeout", time.Minute,
		"recommendation timeout")

	recommendCmd.MarkFlagsOneRequired("track", "audio")
	recommendCmd.MarkFlagsMutuallyExclusive("track", "audio")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), recommendTimeout)
	defer cancel()

	opts := recommender.RecommendOptions{
		K:          a.Config.Recommend.K,
		Strictness: a.Config.Recommend.Strictness,
		ShadowMode: recommendShadow || a.Config.Recommend.ShadowMode,
		Weights:    a.Config.Recommend.BlockWeights,
	}
	if recommendK > 0 {
		opts.K = recommendK
	}
	if recommendStrictness >= 0 {
		opts.Strictness = recommendStrictness
	}

	var result *recommend.Result
	if recommendTrackID != "" {
		result, err = a.Service.RecommendByID(ctx, recommendTrackID, opts)
	} else {
		var signal []float64
		var sampleRate int
		signal, sampleRate, err = audio.ReadFile(recommendAudioFile, a.Config.Audio.SampleRate)
		if err != nil {
			return err
		}
		result, err = a.Service.RecommendByAudio(ctx, signal, sampleRate, recommendGenres, opts)
	}
	if err != nil {
		return err
	}

	return printResult(result)
}

func printResult(result *recommend.Result) error {
	if viper.GetString("output_format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.ReasonCode == recommend.ReasonEmptyCatalog {
		fmt.Println("catalog is empty; nothing to recommend")
		return nil
	}
	if len(result.Recommendations) == 0 {
		fmt.Println("no recommendations")
		return nil
	}

	fmt.Printf("%-4s %-30s %-20s %10s %10s %10s\n",
		"RANK", "TITLE", "ARTIST", "SIMILARITY", "PENALTY", "SCORE")
	for _, rec := range result.Recommendations {
		fmt.Printf("%-4d %-30.30s %-20.20s %10.4f %10.4f %10.4f\n",
			rec.Rank, rec.Entry.Title, rec.Entry.Artist,
			rec.Similarity, rec.Penalty, rec.FinalScore)
		for _, reason := range rec.Reasons {
			fmt.Printf("     - %s\n", reason)
		}
	}
	return nil
}
