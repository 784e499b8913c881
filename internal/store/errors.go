package store

import "errors"

// ErrNotFound is returned when a row with the given id does not exist
var ErrNotFound = errors.New("not found")

// ErrLimitExceeded is matched by every LimitError
var ErrLimitExceeded = errors.New("limit exceeded")

// Registration caps
const (
	MaxStocks    = 15
	MaxWatchlist = 20
)

// LimitError carries the user-facing message for a capped table
type LimitError struct {
	Message string
}

func (e *LimitError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrLimitExceeded) true
func (e *LimitError) Is(target error) bool { return target == ErrLimitExceeded }

var (
	errStockLimit     = &LimitError{Message: "보유 종목은 최대 15개까지 등록할 수 있습니다."}
	errWatchlistLimit = &LimitError{Message: "관심 종목은 최대 20개까지 등록할 수 있습니다."}
)
