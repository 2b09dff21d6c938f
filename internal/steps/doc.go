// Package steps описывает типы шагов процесса.
//
// Registry сопоставляет domain.StepType с подписью, цветом и описанием.
// Используется CLI при отрисовке swimlane и API в GET /api/v1/step-types.
// Неизвестные типы не отбрасываются: для них есть Fallback.
package steps
