package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Trinity/internal/domain"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// MaxFireTimes — ограничение на количество вычисляемых запусков.
const MaxFireTimes = 50

// NextFireTimes вычисляет n следующих запусков для schedule-триггера.
//
// Для manual/webhook триггеров и nil возвращает nil без ошибки.
// Timezone триггера учитывается; невалидный timezone — fallback на UTC.
// Время возвращается в UTC.
func NextFireTimes(trigger *domain.Trigger, from time.Time, n int) ([]time.Time, error) {
	if trigger == nil || trigger.Type != domain.TriggerSchedule {
		return nil, nil
	}
	if n <= 0 {
		return nil, nil
	}
	n = min(n, MaxFireTimes)

	schedule, err := cronParser.Parse(trigger.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", trigger.Schedule, err)
	}

	next := from.In(location(trigger.Timezone))
	times := make([]time.Time, 0, n)
	for range n {
		next = schedule.Next(next)
		if next.IsZero() {
			break // выражение никогда не срабатывает
		}
		times = append(times, next.UTC())
	}

	return times, nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// location загружает timezone. Пусто или ошибка — UTC.
func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
