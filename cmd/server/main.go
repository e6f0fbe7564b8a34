// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/platform/database"
	platformElasticsearch "magic_broom_backend/internal/platform/elasticsearch"
	"magic_broom_backend/internal/platform/logger"
	"magic_broom_backend/internal/request"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

func main() {
	syncRequestsCmd := flag.NewFlagSet("sync-requests", flag.ExitOnError)
	batchSize := syncRequestsCmd.Int("batch-size", 100, "Batch size for syncing cleaning requests")
	esRefresh := syncRequestsCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-requests" {
		syncRequestsCmd.Parse(os.Args[2:])

		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
		}
		appLogger, err := logger.New(cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
		}
		db, err := database.NewGORM(cfg)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
		}
		defer database.CloseGORMDB(db)

		esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
		}
		if esClient == nil {
			appLogger.Fatal("FATAL: ELASTICSEARCH_URL must be set for the sync-requests command.")
		}

		if err := platformElasticsearch.CreateCleaningRequestsIndexIfNotExists(esClient, appLogger); err != nil {
			appLogger.Fatal("FATAL: Failed to create/verify Elasticsearch index before sync", zap.Error(err))
		}

		requestRepo := request.NewGORMRepository(db)

		if err := runRequestSync(requestRepo, esClient, appLogger, *batchSize, *esRefresh); err != nil {
			appLogger.Fatal("FATAL: Cleaning request synchronization failed", zap.Error(err))
		}
		appLogger.Info("Cleaning request synchronization completed successfully.")
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runRequestSync rebuilds the cleaning requests search index from the
// database in batches.
func runRequestSync(
	requestRepo request.Repository,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	batchSize int,
	esRefresh string,
) error {
	logger.Info("Starting cleaning request synchronization to Elasticsearch...",
		zap.Int("batchSize", batchSize),
		zap.String("esRefreshPolicy", esRefresh),
	)

	offset := 0
	totalSynced := 0
	totalFailed := 0
	batchNumber := 1

	for {
		requests, err := requestRepo.FindAllForSync(context.Background(), offset, batchSize)
		if err != nil {
			logger.Error("Failed to fetch batch of cleaning requests", zap.Error(err), zap.Int("batchNumber", batchNumber))
			return fmt.Errorf("failed to fetch batch %d: %w", batchNumber, err)
		}
		if len(requests) == 0 {
			logger.Info("No more cleaning requests to sync.")
			break
		}

		var bulkRequestBody strings.Builder
		docCount := 0

		for i := range requests {
			r := &requests[i]
			docJSON, errDoc := request.SearchDocJSON(r)
			if errDoc != nil {
				logger.Error("Failed to convert cleaning request to Elasticsearch document",
					zap.String("requestID", r.ID.String()),
					zap.Error(errDoc),
				)
				totalFailed++
				continue
			}

			fmt.Fprintf(&bulkRequestBody, `{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`,
				platformElasticsearch.CleaningRequestsIndexName, r.ID.String(), "\n")
			bulkRequestBody.WriteString(docJSON)
			bulkRequestBody.WriteString("\n")
			docCount++
		}

		if docCount == 0 {
			offset += len(requests)
			batchNumber++
			continue
		}

		logger.Info("Sending bulk request to Elasticsearch",
			zap.Int("batchNumber", batchNumber), zap.Int("documentCount", docCount))

		req := esapi.BulkRequest{
			Body:    strings.NewReader(bulkRequestBody.String()),
			Refresh: esRefresh,
		}
		res, errBulk := req.Do(context.Background(), esClient.Client)
		if errBulk != nil {
			logger.Error("Failed to send bulk request to Elasticsearch", zap.Error(errBulk), zap.Int("batchNumber", batchNumber))
			totalFailed += docCount
			offset += len(requests)
			batchNumber++
			continue
		}

		batchSynced, batchFailed := countBulkResults(res, docCount, logger)
		res.Body.Close()

		totalSynced += batchSynced
		totalFailed += batchFailed
		logger.Info("Batch processed.",
			zap.Int("batchNumber", batchNumber),
			zap.Int("syncedInBatch", batchSynced),
			zap.Int("failedInBatch", batchFailed),
		)

		offset += len(requests)
		batchNumber++
	}

	logger.Info("Cleaning request synchronization process finished.",
		zap.Int("totalSyncedSuccessfully", totalSynced),
		zap.Int("totalFailed", totalFailed),
	)
	if totalFailed > 0 {
		return fmt.Errorf("%d cleaning requests failed to sync", totalFailed)
	}
	return nil
}

// countBulkResults inspects a bulk response for item-level failures. A bulk
// call can succeed overall while individual documents fail.
func countBulkResults(res *esapi.Response, docCount int, logger *zap.Logger) (synced, failed int) {
	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		logger.Error("Failed to parse Elasticsearch bulk response body", zap.Error(err))
		return 0, docCount
	}

	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			logger.Error("Failed to index document in bulk batch",
				zap.String("requestID", item.Index.ID),
				zap.Any("error", item.Index.Error),
				zap.Int("status", item.Index.Status),
			)
			failed++
		} else {
			synced++
		}
	}
	return synced, failed
}
