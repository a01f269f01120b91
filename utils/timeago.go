package utils

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// spanishMagnitudes 西班牙语的相对时间表（同 moment.locale("es") 的输出风格）
var spanishMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "%s unos segundos", DivBy: 1},
	{D: 90 * time.Second, Format: "%s un minuto", DivBy: 1},
	{D: 45 * time.Minute, Format: "%s %d minutos", DivBy: time.Minute},
	{D: 90 * time.Minute, Format: "%s una hora", DivBy: 1},
	{D: 22 * time.Hour, Format: "%s %d horas", DivBy: time.Hour},
	{D: 36 * time.Hour, Format: "%s un día", DivBy: 1},
	{D: 26 * humanize.Day, Format: "%s %d días", DivBy: humanize.Day},
	{D: 45 * humanize.Day, Format: "%s un mes", DivBy: 1},
	{D: 320 * humanize.Day, Format: "%s %d meses", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "%s un año", DivBy: 1},
	{D: math.MaxInt64, Format: "%s %d años", DivBy: humanize.Year},
}

// TimeAgo 返回相对于 now 的西班牙语描述，例如 "hace 3 días"
func TimeAgo(then, now time.Time) string {
	if then.IsZero() {
		return ""
	}
	return humanize.CustomRelTime(then, now, "hace", "dentro de", spanishMagnitudes)
}

