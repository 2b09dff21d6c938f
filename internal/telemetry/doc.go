// Package telemetry — логирование и метрики сервисов Trinity.
//
// logging.go настраивает slog (LOG_LEVEL, LOG_FORMAT) и переносит логгер
// запроса через context. metrics.go объявляет Prometheus метрики:
// HTTP запросы, построение раскладок (label source: preview, stored,
// indexer) и события RabbitMQ.
package telemetry
