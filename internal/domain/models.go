package domain

import (
	"fmt"
	"time"
)

// Site is one configured resource to monitor.
type Site struct {
	Name          string        `json:"name"`
	URI           string        `json:"uri"`
	SearchContent string        `json:"search_content,omitempty"`
	CheckPeriod   time.Duration `json:"check_period"`
	Timeout       time.Duration `json:"timeout"`
}

// LogRecord is produced once per check attempt and never mutated afterwards.
type LogRecord struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	StartTime     time.Time     `json:"start_time"`
	Outcome       Outcome       `json:"outcome"`
	ExecutionTime time.Duration `json:"execution_time_ns"`
}

// String renders the record as one line of the text log:
// "<start_time>: <name>\t<status>\t<execution_time>".
func (r LogRecord) String() string {
	return fmt.Sprintf("%s: %s\t%s\t%s",
		r.StartTime.Format(time.RFC3339Nano), r.Name, r.Outcome, r.ExecutionTime)
}
