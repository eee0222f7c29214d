package runner

import (
	"errors"
	"fmt"
	"os"
)

// ErrSignal 表示因收到系统信号而终止，配合 errors.Is 使用。
var ErrSignal = errors.New("runner: received signal")

// ErrNilFunc 表示传入了 nil 任务函数。
var ErrNilFunc = errors.New("runner: nil task func")

// SignalError 携带触发终止的信号。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("runner: received signal %v", e.Signal)
}

// Unwrap 返回 ErrSignal。
func (e *SignalError) Unwrap() error { return ErrSignal }
