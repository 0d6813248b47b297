// Package discover runs the model discovery pipeline: list models, resolve
// each to a file, probe the file and write the manifest.
package discover

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"modelsetup/internal/manifest"
	"modelsetup/internal/probe"
	"modelsetup/pkg/types"
)

// Source lists models and resolves them to files.
type Source interface {
	ListModels(ctx context.Context) []string
	ModelPath(ctx context.Context, model string) (string, bool)
}

// Pipeline is a single discovery run.
type Pipeline struct {
	Source Source
	// Output is the manifest path; manifest.DefaultPath when empty.
	Output  string
	Log     zerolog.Logger
	Out     io.Writer // summary lines; discarded when nil
	Metrics *Metrics  // optional
	// Probe defaults to probe.Probe.
	Probe func(path string) probe.Result
}

// Run discovers models and writes the manifest. When there is nothing to
// write it returns ErrNoModels or an IsNoResolvedModels error and leaves the
// output file untouched.
func (p *Pipeline) Run(ctx context.Context) (types.Manifest, error) {
	output := p.Output
	if output == "" {
		output = manifest.DefaultPath
	}
	if err := manifest.CheckFormat(output); err != nil {
		return types.Manifest{}, err
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	probeFn := p.Probe
	if probeFn == nil {
		probeFn = probe.Probe
	}

	p.Log.Info().Msg("discovering models")
	models := p.Source.ListModels(ctx)
	p.Metrics.observeListed(len(models))
	if len(models) == 0 {
		p.Log.Error().Msg("no models found; make sure ollama is installed and has models")
		return types.Manifest{}, ErrNoModels
	}
	fmt.Fprintf(out, "Found %d models:\n", len(models))
	for _, m := range models {
		fmt.Fprintf(out, "  - %s\n", m)
	}

	p.Log.Info().Msg("resolving model paths")
	var records []types.ModelRecord
	for _, name := range models {
		if err := ctx.Err(); err != nil {
			return types.Manifest{}, err
		}
		p.Log.Debug().Str("model", name).Msg("processing")
		path, ok := p.Source.ModelPath(ctx, name)
		if !ok {
			p.Log.Warn().Str("model", name).Str("reason", reasonUnresolved).Msg("could not find file")
			p.Metrics.observeSkipped(reasonUnresolved)
			continue
		}
		res := probeFn(path)
		if !res.Exists {
			p.Log.Warn().Str("model", name).Str("path", path).Str("reason", reasonMissing).Msg("could not find file")
			p.Metrics.observeSkipped(reasonMissing)
			continue
		}
		p.Metrics.observeResolved()
		records = append(records, types.ModelRecord{Name: name, Path: path, Size: res.Size})
	}
	if len(records) == 0 {
		p.Log.Error().Int("listed", len(models)).Msg("no valid model paths found")
		return types.Manifest{}, noResolvedError{listed: len(models)}
	}

	m := manifest.New(records)
	if err := manifest.Write(output, m); err != nil {
		return types.Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	p.Metrics.observeDone(len(records))
	p.Log.Info().Str("output", output).Int("models", len(records)).Msg("manifest written")

	fmt.Fprintf(out, "\nGenerated %s with %d models:\n", output, len(records))
	for _, r := range records {
		fmt.Fprintf(out, "  - %s (%s)\n", r.Name, r.Size)
	}
	fmt.Fprintln(out, "\nNow start the chat client without a model path")
	fmt.Fprintln(out, "  and it will prompt you to select from these models!")
	return m, nil
}
