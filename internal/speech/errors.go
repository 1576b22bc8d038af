package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrStopped is returned by Speak when a stop was requested mid-utterance.
	ErrStopped = errors.New("speech stopped")

	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("no text to speak")

	// ErrEngineUnavailable indicates the engine binary or service is missing.
	ErrEngineUnavailable = errors.New("speech engine unavailable")

	// ErrUnknownEngine indicates no factory is registered under a name.
	ErrUnknownEngine = errors.New("unknown speech engine")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("speech session closed")
)

// ErrorCode identifies the failing stage of an engine call.
type ErrorCode string

const (
	ErrorCodeInit     ErrorCode = "ENGINE_INIT"
	ErrorCodeVoices   ErrorCode = "ENGINE_VOICES"
	ErrorCodeSynth    ErrorCode = "ENGINE_SYNTHESIS"
	ErrorCodePlayback ErrorCode = "ENGINE_PLAYBACK"
	ErrorCodeTimeout  ErrorCode = "ENGINE_TIMEOUT"
)

// EngineError is an engine failure with the engine name and stage attached.
type EngineError struct {
	Engine  string
	Code    ErrorCode
	Message string
	Cause   error
}

// NewEngineError creates an EngineError.
func NewEngineError(engine string, code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Engine: engine, Code: code, Message: message, Cause: cause}
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Engine, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Engine, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Short returns a message suitable for a one-line status display.
func (e *EngineError) Short() string {
	return fmt.Sprintf("%s %s", e.Engine, e.Message)
}
