package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RepoUnavailable indicates a repository could not be cloned or fetched
	RepoUnavailable ErrorCode = "REPO_UNAVAILABLE"
	// CheckoutFailed indicates the requested commit could not be checked out
	CheckoutFailed ErrorCode = "CHECKOUT_FAILED"
	// ListingFailed indicates the candidate file list could not be built
	ListingFailed ErrorCode = "LISTING_FAILED"
	// PatchInvalid indicates a ground-truth patch could not be parsed
	PatchInvalid ErrorCode = "PATCH_INVALID"
	// DatasetInvalid indicates a malformed benchmark dataset
	DatasetInvalid ErrorCode = "DATASET_INVALID"
	// EmbedderUnavailable indicates the embedding model could not be loaded
	EmbedderUnavailable ErrorCode = "EMBEDDER_UNAVAILABLE"
	// ConfigInvalid indicates an invalid configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// Timeout indicates an external command timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// FilocError carries a stable code, a message and suggested fixes
type FilocError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a FilocError with the predefined fixes for its code.
func New(code ErrorCode, message string, cause error) *FilocError {
	return &FilocError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *FilocError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *FilocError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *FilocError) WithDetails(details interface{}) *FilocError {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes
func (e *FilocError) WithFixes(fixes ...FixAction) *FilocError {
	e.SuggestedFixes = fixes
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RepoUnavailable: {
		{
			Type:        RunCommand,
			Command:     "git ls-remote ${clone_url}",
			Safe:        true,
			Description: "Verify the repository URL is reachable",
		},
	},
	CheckoutFailed: {
		{
			Type:        RunCommand,
			Command:     "rm -rf ${checkout_dir}",
			Safe:        false,
			Description: "Remove the cached checkout so it is cloned again",
		},
	},
	EmbedderUnavailable: {
		{
			Type:        RunCommand,
			Command:     "filoc config show",
			Safe:        true,
			Description: "Check embedder.modelPath, embedder.tokenizerPath and embedder.ortLibrary",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "filoc config init --force",
			Safe:        false,
			Description: "Regenerate the default configuration",
		},
	},
	Timeout: {
		{
			Type:        RunCommand,
			Command:     "filoc eval --git-timeout 600 ...",
			Safe:        true,
			Description: "Retry with a longer git timeout",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// CodeOf returns the code of the first FilocError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if fe, ok := err.(*FilocError); ok {
			return fe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return InternalError
}
