package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/balashankar-d/PolicyPilot/internal/chromemdb"
	"github.com/balashankar-d/PolicyPilot/internal/config"
	"github.com/balashankar-d/PolicyPilot/internal/db"
	"github.com/balashankar-d/PolicyPilot/internal/embedding"
	"github.com/balashankar-d/PolicyPilot/internal/helper"
	"github.com/balashankar-d/PolicyPilot/internal/llmservice"
	"github.com/balashankar-d/PolicyPilot/internal/memory"
	"github.com/balashankar-d/PolicyPilot/internal/models"
	"github.com/balashankar-d/PolicyPilot/internal/parser"
	"github.com/balashankar-d/PolicyPilot/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	tenant := flag.String("tenant", "", "Tenant id (empty for the shared anonymous tenant)")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	source := flag.String("source", "", "Source name override for -file (defaults to the file name)")
	query := flag.String("query", "", "Question to be answered")
	deleteSource := flag.String("delete", "", "Source name of a document to remove")
	stats := flag.Bool("stats", false, "Print tenant stats")
	setMemory := flag.String("set-memory", "", "Store a memory fact as key=value")
	getMemories := flag.Bool("get-memories", false, "Print all memory facts")
	deleteMemory := flag.String("delete-memory", "", "Delete one memory fact by key")
	clearMemories := flag.Bool("clear-memories", false, "Delete all memory facts")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// .env is optional; config values may reference its variables
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	pipeline, cleanup := buildPipeline(cfg)
	defer cleanup()

	switch {
	case *filePath != "":
		ingestFile(ctx, pipeline, *tenant, *filePath, *source)
	case *query != "":
		askQuestion(ctx, pipeline, *tenant, *query)
	case *deleteSource != "":
		if err := pipeline.RemoveDocument(ctx, *tenant, *deleteSource); err != nil {
			log.Fatal().Err(err).Msg("Error removing document")
		}
		log.Info().Str("source", *deleteSource).Msg("Removed document")
	case *stats:
		printStats(ctx, pipeline, *tenant)
	case *setMemory != "":
		key, value, ok := strings.Cut(*setMemory, "=")
		if !ok {
			log.Fatal().Msg("Expected -set-memory key=value")
		}
		if err := pipeline.SetMemory(ctx, *tenant, key, value); err != nil {
			log.Fatal().Err(err).Msg("Error storing memory")
		}
	case *getMemories:
		facts, err := pipeline.GetMemories(ctx, *tenant)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading memories")
		}
		helper.PrettyPrint(facts)
	case *deleteMemory != "":
		if err := pipeline.DeleteMemory(ctx, *tenant, *deleteMemory); err != nil {
			log.Fatal().Err(err).Msg("Error deleting memory")
		}
	case *clearMemories:
		if err := pipeline.ClearMemories(ctx, *tenant); err != nil {
			log.Fatal().Err(err).Msg("Error clearing memories")
		}
	default:
		flag.Usage()
	}
}

// buildPipeline constructs every shared service once and injects it; the
// returned cleanup closes what needs closing.
func buildPipeline(cfg *config.Config) (*rag.Pipeline, func()) {
	if err := helper.CreateFolder(cfg.RAG.PersistPath); err != nil {
		log.Fatal().Err(err).Msg("Error creating persistence folder")
	}
	index, err := chromemdb.NewPersistent(cfg.RAG.PersistPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}

	embedder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	llm, err := llmservice.NewService(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	var (
		store   rag.Store
		cleanup = func() {}
	)
	if cfg.Database.DSN == "" {
		log.Warn().Msg("No database DSN configured, using in-memory stores")
		store = memory.NewMemStore()
	} else {
		sqldb := db.ConnectDB(cfg.Database.DSN)
		bundb := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(context.Background(), bundb); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		dbStore := db.NewStore(bundb)
		store = dbStore
		cleanup = func() {
			if err := dbStore.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		}
	}

	return rag.NewPipeline(cfg, embedder, index, llm, store), cleanup
}

func ingestFile(ctx context.Context, pipeline *rag.Pipeline, tenant, filePath, source string) {
	text, err := parser.Extract(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}
	if source == "" {
		source = filepath.Base(filePath)
	}
	result, err := pipeline.Ingest(ctx, tenant, source, text)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Str("source", source).Int("chunks", result.ChunksCreated).Msg("Ingested document")
}

func askQuestion(ctx context.Context, pipeline *rag.Pipeline, tenant, query string) {
	answer, err := pipeline.Answer(ctx, tenant, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", strings.Join(answer.Sources, ", "))

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Text)

	log.Info().Stringer("kind", answer.Kind).Bool("success", answer.Success).Msg("Result")
}

func printStats(ctx context.Context, pipeline *rag.Pipeline, tenant string) {
	s, err := pipeline.Stats(ctx, tenant)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading stats")
	}
	if tenant == "" {
		tenant = models.TenantAnonymous
	}
	log.Info().Str("tenant", tenant).Msg("Stats")
	helper.PrettyPrint(map[string]int{
		"total_documents":          s.TotalDocuments,
		"total_conversations":      s.TotalConversations,
		"successful_conversations": s.SuccessfulConversations,
	})
}
