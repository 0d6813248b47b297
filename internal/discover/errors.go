package discover

import "fmt"

// noModelsError signals that the model runner reported no models at all.
type noModelsError struct{}

func (noModelsError) Error() string {
	return "no models found; make sure ollama is installed and has models"
}

// ErrNoModels is returned by Run when listing yields nothing.
var ErrNoModels error = noModelsError{}

// IsNoModels reports whether err indicates an empty model list.
func IsNoModels(err error) bool {
	_, ok := err.(noModelsError)
	return ok
}

// noResolvedError signals that models were listed but none mapped to a file.
type noResolvedError struct{ listed int }

func (e noResolvedError) Error() string {
	return fmt.Sprintf("no valid model paths found among %d listed models", e.listed)
}

// IsNoResolvedModels reports whether err indicates that no listed model
// resolved to an existing file.
func IsNoResolvedModels(err error) bool {
	_, ok := err.(noResolvedError)
	return ok
}
