package task

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Score is an optional priority score in [MinScore, MaxScore]. The zero
// value means "not yet ranked".
type Score struct {
	n   int
	set bool
}

// NoScore returns the unranked score.
func NoScore() Score { return Score{} }

// NewScore validates n and returns it as a set score.
func NewScore(n int) (Score, error) {
	if n < MinScore || n > MaxScore {
		return Score{}, &ValidationError{
			Field:   "priority_score",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinScore, MaxScore, n),
		}
	}
	return Score{n: n, set: true}, nil
}

// MustScore is NewScore for constants; it panics on out-of-range input.
func MustScore(n int) Score {
	s, err := NewScore(n)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseScore accepts the textual forms a form field may carry: an empty
// string or "null" for no score, otherwise an integer literal.
func ParseScore(s string) (Score, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return NoScore(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Score{}, &ValidationError{Field: "priority_score", Message: fmt.Sprintf("not an integer: %q", s)}
	}
	return NewScore(n)
}

// Int returns the score and whether it is set.
func (s Score) Int() (int, bool) { return s.n, s.set }

// Valid reports whether the score is set.
func (s Score) Valid() bool { return s.set }

func (s Score) String() string {
	if !s.set {
		return "null"
	}
	return strconv.Itoa(s.n)
}

// MarshalJSON encodes an unset score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(s.n)), nil
}

// UnmarshalJSON accepts null, an integral number, or a numeric string.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = NoScore()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return &ValidationError{Field: "priority_score", Message: "invalid string"}
		}
		v, err := ParseScore(str)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return &ValidationError{Field: "priority_score", Message: "must be a number or null"}
	}
	if f != math.Trunc(f) {
		return &ValidationError{Field: "priority_score", Message: fmt.Sprintf("must be an integer, got %v", f)}
	}
	if f < MinScore || f > MaxScore {
		return &ValidationError{
			Field:   "priority_score",
			Message: fmt.Sprintf("must be between %d and %d, got %v", MinScore, MaxScore, f),
		}
	}
	*s = Score{n: int(f), set: true}
	return nil
}

// Scan implements sql.Scanner so pgx can read a nullable INTEGER column.
func (s *Score) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = NoScore()
		return nil
	case int64:
		return s.assign(int(v))
	case int32:
		return s.assign(int(v))
	case int:
		return s.assign(v)
	default:
		return fmt.Errorf("scan score: unsupported type %T", src)
	}
}

func (s *Score) assign(n int) error {
	v, err := NewScore(n)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value implements driver.Valuer.
func (s Score) Value() (driver.Value, error) {
	if !s.set {
		return nil, nil
	}
	return int64(s.n), nil
}
