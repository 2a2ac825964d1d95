// Command refchat answers questions about the papers in a Zotero library.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/refchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/refchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/refchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/refchat/internal/adapters/driven/zotero"
	"github.com/custodia-labs/refchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/refchat/internal/adapters/driving/watch"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/services"
	"github.com/custodia-labs/refchat/internal/logger"
	"github.com/custodia-labs/refchat/internal/normalisers/pdf"
	"github.com/custodia-labs/refchat/internal/postprocessors"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute(ctx)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds every adapter and service and injects them into the CLI.
// AI provider failures leave the AI-backed commands unconfigured so that
// settings can still be inspected and fixed.
func wire() (func(), error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore)
	settingsSvc.SetValidator(ai.NewConfigValidator())

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	vectors, err := sqlite.NewVectorStore(settings.Index.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	historyStore, err := sqlite.NewHistoryStore("")
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	library := zotero.NewLibrary(zotero.Config{
		BaseURL:     settings.Zotero.BaseURL,
		StorageRoot: settings.Zotero.StorageRoot,
	})
	documentSvc := services.NewDocumentService(library, vectors)
	historySvc := services.NewHistoryService(historyStore)

	svcs := cli.Services{
		Documents: documentSvc,
		History:   historySvc,
		Settings:  settingsSvc,
	}
	closers := []func(){func() { historyStore.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := wireAI(*settings, &svcs, vectors, &closers); err != nil {
		logger.Warn("AI services unavailable: %v", err)
		logger.Warn("run 'refchat settings check' after fixing the configuration")
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)
	return cleanup, nil
}

// wireAI adds the services that need the LLM and embedding providers.
func wireAI(settings domain.AppSettings, svcs *cli.Services, vectors *sqlite.VectorStore, closers *[]func()) error {
	aiServices, err := ai.Init(settings)
	if err != nil {
		return err
	}
	*closers = append(*closers, aiServices.Close)
	embedder := aiServices.EmbeddingService

	chunker, err := postprocessors.DefaultRegistry().Build(settings.Chunking, embedder)
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	synth := services.NewSynthesizer(aiServices.LLMService)
	synth.SetPromptStore(prompts)
	glossary := services.NewGlossaryExtractor()
	glossary.SetPromptStore(prompts)

	indexes := services.NewIndexManager(
		svcs.Documents,
		pdf.New(),
		chunker,
		services.NewIndexStore(vectors, embedder),
		embedder,
		services.WithSourceVerification(settings.Index.VerifySource),
	)

	svcs.Assistant = services.NewAssistantService(
		svcs.Documents, indexes, embedder, synth, glossary, svcs.History, settings,
	)
	svcs.Indexes = indexes
	svcs.Models = services.NewModelService(aiServices.LLMService, settings.LLM.Model)
	svcs.Watcher = watch.New(watch.Config{Root: settings.Zotero.StorageRoot}, svcs.Documents, indexes)
	return nil
}
