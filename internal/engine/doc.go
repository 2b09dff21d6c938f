// Package engine содержит движок раскладки процессов.
//
// Включает:
//   - parser.go   — парсинг YAML-определения процесса в список шагов
//   - levels.go   — назначение уровней шагам и группировка в swimlanes
//   - dag.go      — граф зависимостей: корни, топологический порядок, циклы
//   - layout.go   — сборка всего вместе + диагностика нерешённых шагов
//   - validate.go — строгая валидация определения (опционально, при публикации)
//
// Engine ничего не выполняет: он только понимает структуру процесса
// и отвечает на вопрос "какие шаги можно рисовать параллельно".
package engine
