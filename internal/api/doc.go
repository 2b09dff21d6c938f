// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go            — Handler с DI (хранилища, publisher, logger)
//   - routes.go             — регистрация маршрутов
//   - middleware.go         — middleware (logging, recovery, request id)
//   - response.go           — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                — Data Transfer Objects (request/response)
//   - process_handler.go    — обработчики для /processes и версий
//   - preview_handler.go    — предпросмотр раскладки
//   - step_types_handler.go — справочник типов шагов
//
// API предоставляет REST endpoints для редактора процессов: предпросмотр
// раскладки по уровням, хранение версий YAML и сводки раскладки.
package api
