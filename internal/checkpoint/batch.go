package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// FileStatus is the recorded outcome of one file in a batch run.
type FileStatus string

const (
	FileSuccess     FileStatus = "success"
	FileError       FileStatus = "error"
	FileRateLimited FileStatus = "rate_limited"
)

// FileResult records how a single input file fared.
type FileResult struct {
	Status  FileStatus `json:"status"`
	Output  string     `json:"output,omitempty"`
	Message string     `json:"message,omitempty"`
}

// BatchState maps input paths to their latest outcome.
type BatchState map[string]FileResult

// BatchStore persists the batch state for one output directory and
// language pair. Safe for concurrent use; the file is rewritten after
// every recorded result.
type BatchStore struct {
	path   string
	logger *log.Logger

	mu    sync.Mutex
	state BatchState
}

// NewBatchStore creates the store for outputDir and the given language
// pair, loading any state left by a previous run.
func NewBatchStore(outputDir, srcLang, targetLang string) *BatchStore {
	s := &BatchStore{
		path:   filepath.Join(outputDir, fmt.Sprintf("batch_state_%s_%s.json", srcLang, targetLang)),
		logger: log.Default(),
		state:  BatchState{},
	}
	s.load()
	return s
}

// Path returns the batch state file location.
func (s *BatchStore) Path() string {
	return s.path
}

func (s *BatchStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to load batch state %s: %v", s.path, err)
		}
		return
	}

	var state BatchState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("failed to decode batch state %s: %v", s.path, err)
		return
	}
	s.state = state
	s.logger.Info("loaded batch state with %d files", len(state))
}

// Get returns the recorded result for an input path, if any.
func (s *BatchStore) Get(inputPath string) (FileResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.state[inputPath]
	return res, ok
}

// Record stores the outcome for an input path and persists the whole
// state. Persistence failures are logged, never returned.
func (s *BatchStore) Record(inputPath string, result FileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[inputPath] = result
	if err := writeJSONAtomic(s.path, s.state); err != nil {
		s.logger.Warn("failed to save batch state %s: %v", s.path, err)
	}
}

// Snapshot returns a copy of the current state.
func (s *BatchStore) Snapshot() BatchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(BatchState, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}
