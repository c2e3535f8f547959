// Command export dumps the pose library, instructor profiles, and
// sequences to files. One-shot operator tool:
//
//	POSTGRES_DSN=... MONGO_URI=... export -format csv -out ./dump
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asanalab/flowbuilder/internal/config"
	"github.com/asanalab/flowbuilder/internal/export"
	"github.com/asanalab/flowbuilder/internal/store"
)

func main() {
	format := flag.String("format", export.FormatJSON, "output format: json or csv")
	out := flag.String("out", ".", "output directory")
	flag.Parse()

	if !export.ValidFormat(*format) {
		log.Fatalf("unknown format %q (want json or csv)", *format)
	}

	cfg := config.Load()
	ctx := context.Background()

	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	// Poses with variations.
	poses, err := pgStore.ListPoses(ctx)
	if err != nil {
		log.Fatalf("list poses: %v", err)
	}
	for i := range poses {
		poses[i].Variations, err = pgStore.ListVariations(ctx, poses[i].ID)
		if err != nil {
			log.Fatalf("list variations: %v", err)
		}
	}

	profiles, err := pgStore.ListProfiles(ctx)
	if err != nil {
		log.Fatalf("list profiles: %v", err)
	}

	seqs, err := mongoStore.ListAll(ctx)
	if err != nil {
		log.Fatalf("list sequences: %v", err)
	}

	switch *format {
	case export.FormatJSON:
		writeFile(*out, "poses.json", func(f *os.File) error { return export.WriteJSON(f, poses) })
		writeFile(*out, "profiles.json", func(f *os.File) error { return export.WriteJSON(f, profiles) })
	case export.FormatCSV:
		writeFile(*out, "poses.csv", func(f *os.File) error { return export.WritePosesCSV(f, poses) })
		writeFile(*out, "profiles.csv", func(f *os.File) error { return export.WriteProfilesCSV(f, profiles) })
		log.Println("sequences are nested; writing sequences.json alongside the CSVs")
	}
	writeFile(*out, "sequences.json", func(f *os.File) error { return export.WriteSequences(f, seqs) })

	log.Printf("exported %d poses, %d profiles, %d sequences to %s",
		len(poses), len(profiles), len(seqs), *out)
}

func writeFile(dir, name string, write func(*os.File) error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
}
