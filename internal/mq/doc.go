// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий о версиях процессов
//   - consumer.go   — потребление событий
//
// Типы сообщений:
//   - process.version_created — опубликована новая версия процесса
//
// Exchanges:
//   - trinity.processes — события процессов
//   - trinity.dlq       — dead letter queue
package mq
