package domain

import "fmt"

// Outcome classifies a single check attempt.
type Outcome int

const (
	OutcomeOK Outcome = iota + 1
	OutcomeRequestFailed
	OutcomeRequestTimeout
	OutcomeContentMismatch
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:              "ok",
	OutcomeRequestFailed:   "request_failed",
	OutcomeRequestTimeout:  "request_timeout",
	OutcomeContentMismatch: "content_mismatch",
}

// Outcomes lists every valid outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeOK, OutcomeRequestFailed, OutcomeRequestTimeout, OutcomeContentMismatch}
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) Valid() bool {
	_, ok := outcomeNames[o]
	return ok
}

func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	p, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = p
	return nil
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}
