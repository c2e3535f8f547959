// Command cuegen backfills teaching cues for pose variations that have
// none, using Gemini. One-shot operator tool:
//
//	GEMINI_API_KEY=... POSTGRES_DSN=... cuegen -limit 50 -dry-run
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asanalab/flowbuilder/internal/config"
	"github.com/asanalab/flowbuilder/internal/cue"
	"github.com/asanalab/flowbuilder/internal/store"
)

func main() {
	model := flag.String("model", "", "Gemini model name (default per generator)")
	limit := flag.Int("limit", 100, "maximum number of variations to backfill")
	dryRun := flag.Bool("dry-run", false, "print generated cues without writing them")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)

	gen, err := cue.NewGenerator(ctx, cfg.GeminiAPIKey, *model)
	if err != nil {
		log.Fatalf("generator: %v", err)
	}

	variations, poseNames, err := pgStore.ListVariationsMissingCue(ctx, *limit)
	if err != nil {
		log.Fatalf("list variations: %v", err)
	}
	if len(variations) == 0 {
		log.Println("no variations missing cues")
		return
	}
	log.Printf("%d variations missing cues", len(variations))

	written := 0
	for _, v := range variations {
		poseName := poseNames[v.PoseID]
		text, err := gen.Generate(ctx, poseName, v.Name)
		if err != nil {
			log.Printf("skip %s / %s: %v", poseName, v.Name, err)
			continue
		}
		log.Printf("%s / %s: %s", poseName, v.Name, text)
		if *dryRun {
			continue
		}
		if err := pgStore.SetVariationCue(ctx, v.ID, text); err != nil {
			log.Printf("write cue for %s: %v", v.ID, err)
			continue
		}
		written++
		// Stay under the API's free-tier rate limit.
		time.Sleep(time.Second)
	}
	log.Printf("done: %d cues written", written)
}
