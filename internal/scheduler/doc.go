// Package scheduler разбирает расписания триггеров процессов.
//
// Сам запуск процессов по расписанию живёт в backend; здесь только
// cron-парсер, которым пользуются валидация определения и превью
// ("следующий запуск в ...").
//
// Использование:
//
//	times, err := scheduler.NextFireTimes(def.Trigger, time.Now(), 3)
package scheduler
