package registry

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"modelsetup/internal/common/executil"
)

// DefaultBin is the model runner executable looked up on PATH.
const DefaultBin = "ollama"

// CommandRunner runs an external command and returns its trimmed stdout.
// ok is false when the command failed; the runner reports the failure itself.
type CommandRunner interface {
	Output(ctx context.Context, c executil.Cmd) (out string, ok bool)
}

// Ollama discovers models installed by the ollama CLI.
type Ollama struct {
	Bin    string
	Runner CommandRunner
	Log    zerolog.Logger
}

// NewOllama returns an Ollama source using bin (DefaultBin when empty).
func NewOllama(bin string, r CommandRunner, log zerolog.Logger) *Ollama {
	if bin == "" {
		bin = DefaultBin
	}
	return &Ollama{Bin: bin, Runner: r, Log: log}
}

// ListModels returns the identifiers reported by `ollama list`, in the
// order the tool prints them. An unavailable tool yields an empty slice.
func (o *Ollama) ListModels(ctx context.Context) []string {
	out, ok := o.Runner.Output(ctx, executil.Cmd{Path: o.bin(), Args: []string{"list"}})
	if !ok || out == "" {
		o.Log.Warn().Str("bin", o.bin()).Msg("no models found or ollama not available")
		return nil
	}
	return ParseModelList(out)
}

// ModelPath returns the file backing model according to its modelfile.
func (o *Ollama) ModelPath(ctx context.Context, model string) (string, bool) {
	out, ok := o.Runner.Output(ctx, executil.Cmd{Path: o.bin(), Args: []string{"show", model, "--modelfile"}})
	if !ok || out == "" {
		return "", false
	}
	return ParseModelfilePath(out)
}

func (o *Ollama) bin() string {
	if o.Bin == "" {
		return DefaultBin
	}
	return o.Bin
}

// ParseModelList extracts the first column of every row of `ollama list`
// output. The first line is the header and is always skipped.
func ParseModelList(out string) []string {
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return nil
	}
	var models []string
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		models = append(models, fields[0])
	}
	return models
}

const fromPrefix = "FROM "

// ParseModelfilePath returns the path of the first `FROM <path>` line.
// FROM lines naming a base model tag (no path separator) are ignored.
func ParseModelfilePath(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, fromPrefix) {
			continue
		}
		rest := line[len(fromPrefix):]
		if !strings.ContainsAny(rest, `/\`) {
			continue
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}
