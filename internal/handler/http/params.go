package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
)

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// monthQueryParam reads ?month=YYYY-MM, defaulting to the current month in loc.
func monthQueryParam(r *http.Request, loc *time.Location) (time.Time, error) {
	val := r.URL.Query().Get("month")
	if val == "" {
		if loc == nil {
			loc = time.UTC
		}
		val = time.Now().In(loc).Format("2006-01")
	}
	return attendance.ParseMonth(val)
}
