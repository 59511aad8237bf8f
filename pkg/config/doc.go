// Package config provides application configuration management from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	YANGSEARCH_HOST="0.0.0.0"
//	YANGSEARCH_PORT="8080"
//	YANGSEARCH_HEALTH_PORT="9090"
//	YANGSEARCH_READ_TIMEOUT="15s"
//
// Search engine settings:
//
//	YANGSEARCH_ENGINE="opensearch"  # opensearch, embedded
//	YANGSEARCH_OPENSEARCH_ADDRESSES="https://os-1:9200,https://os-2:9200"
//	YANGSEARCH_OPENSEARCH_USERNAME="admin"
//	YANGSEARCH_OPENSEARCH_TIMEOUT="30s"
//	YANGSEARCH_REFRESH="true"
//	YANGSEARCH_SCHEMA_DIR="/etc/yangsearch/schemas"
//
// Query policy:
//
//	YANGSEARCH_AUTOCOMPLETE_MIN_LENGTH="3"
//	YANGSEARCH_AUTOCOMPLETE_LIMIT="10"
//	YANGSEARCH_MAX_PAGE_SIZE="10000"
//
// Cache settings:
//
//	YANGSEARCH_CACHE_ENABLED="true"
//	YANGSEARCH_CACHE_BACKEND="redis"  # memory, redis
//	YANGSEARCH_CACHE_TTL="5m"
//	YANGSEARCH_REDIS_URL="redis://localhost:6379"
//
// Index statistics:
//
//	YANGSEARCH_STATS_SCHEDULE="@every 5m"
//	YANGSEARCH_STATS_KINDS="autocomplete,drafts"
//
// Observability settings:
//
//	YANGSEARCH_LOG_LEVEL="info"  # debug, info, warn, error
//	YANGSEARCH_LOG_FORMAT="json"  # json, text
//	YANGSEARCH_METRICS_ENABLED="true"
//	YANGSEARCH_OTEL_ENABLED="true"
//	YANGSEARCH_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	builder := query.NewBuilder(cfg.Search.Policy())
package config
