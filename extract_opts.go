package nla

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite    bool
	skipExisting bool
	workers      int
	prefix       string
	progress     ProgressFunc
}

// ExtractWithOverwrite replaces files that already exist.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.overwrite = overwrite
	}
}

// ExtractWithSkipExisting leaves existing files untouched and counts them
// as skipped. Without this or ExtractWithOverwrite an existing file fails
// the extraction with fs.ErrExist.
func ExtractWithSkipExisting(skip bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.skipExisting = skip
	}
}

// ExtractWithWorkers sets the number of files extracted in parallel.
// Values < 1 use GOMAXPROCS.
func ExtractWithWorkers(n int) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.workers = n
	}
}

// ExtractWithPrefix extracts only the directory prefix, e.g. "sub" for
// every file below sub/. The prefix is normalized with NormalizePath.
func ExtractWithPrefix(prefix string) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.prefix = prefix
	}
}

// ExtractWithProgress sets a callback to receive progress updates.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.progress = fn
	}
}
