// Rewrites learning styles whose characteristics or recommendations were stored as a single
// newline-separated string into string lists.
//
// Usage: go run scripts/normalize_learning_styles.go [-config configs/config.yaml]

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"educorp_backend/internal/config"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/service"
	"educorp_backend/pkg/database"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

// scriptConfig is the subset of config.yaml this script reads.
type scriptConfig struct {
	Mongo struct {
		URI            string `yaml:"uri"`
		Database       string `yaml:"database"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"mongo"`
}

func main() {
	path := flag.String("config", "configs/config.yaml", "path to config.yaml")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var sc scriptConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("Failed to parse config file: %v", err)
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		sc.Mongo.URI = uri
	}
	if sc.Mongo.TimeoutSeconds <= 0 {
		sc.Mongo.TimeoutSeconds = 10
	}

	logger.InitNop()

	db, err := database.InitMongo(&config.MongoConfig{
		URI:            sc.Mongo.URI,
		Database:       sc.Mongo.Database,
		TimeoutSeconds: sc.Mongo.TimeoutSeconds,
	})
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}

	store := docstore.NewMongoStore(db)
	assessments := service.NewAssessmentService(
		repository.NewAssessmentRepository(store),
		repository.NewLearningStyleRepository(store),
		nil,
		event.NoopPublisher{},
		"",
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("Normalizing learning styles...")
	report, err := assessments.NormalizeLearningStyles(ctx)
	if err != nil {
		log.Fatalf("Normalization failed: %v", err)
	}
	log.Printf("Done: %d updated, %d unchanged", report.Updated, report.Unchanged)
}
