package types

// ModelRecord is one resolved model as listed in the manifest.
type ModelRecord struct {
	// Model identifier as known to the model runner.
	// example: llama3.2:latest
	Name string `json:"name" yaml:"name" toml:"name"`
	// Absolute path to the model file on disk.
	// example: /home/user/.ollama/models/blobs/sha256-dde5aa3fc5ff
	Path string `json:"path" yaml:"path" toml:"path"`
	// Human-readable size, e.g. "1.9 GB", or "Unknown" when the file could not be stat'ed.
	Size string `json:"size" yaml:"size" toml:"size"`
}

// Manifest is the document consulted by the chat client when it is started
// without an explicit model path.
type Manifest struct {
	Models      []ModelRecord `json:"models" yaml:"models" toml:"models"`
	GeneratedBy string        `json:"generated_by" yaml:"generated_by" toml:"generated_by"`
	Note        string        `json:"note" yaml:"note" toml:"note"`
}
