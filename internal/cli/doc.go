// Package cli реализует инструмент командной строки Trinity.
//
// # Обзор
//
// Команды preview и validate работают локально: YAML разбирается
// и раскладывается по уровням без сервера. Команды process ходят
// в Trinity API по HTTP и не импортируют internal/api.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Trinity API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок (APIError).
//
//	client := cli.NewClient("http://localhost:8080")
//	processes, err := client.ListProcesses()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) и дорожки (lipgloss) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: trinity process list --json | jq .
//
// ## Commands
//
//   - preview FILE [--remote]
//   - validate FILE
//   - step-types
//   - process: list, create, show, update, delete, versions, publish, preview, layout
//
// Группы создаются фабриками (NewProcessCmd и т.д.), принимающими
// clientFn и outputFn — замыкания для ленивого создания Client и Output
// после парсинга PersistentFlags.
package cli
