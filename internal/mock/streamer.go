package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/alert"
)

const checkpointEvery = 10

// Submitter receives streamed alerts. Wrap *triage.Service with a
// SubmitterFunc that drops the submit result.
type Submitter interface {
	Submit(ctx context.Context, al *alert.Alert) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, al *alert.Alert) error

func (f SubmitterFunc) Submit(ctx context.Context, al *alert.Alert) error { return f(ctx, al) }

// checkpoint is the resume state persisted between runs.
type checkpoint struct {
	LastIndex int       `json:"last_index"`
	Timestamp time.Time `json:"timestamp"`
}

// Streamer feeds generated alerts into a Submitter at a fixed
// interval, persisting its position so a restarted demo resumes where
// it left off.
type Streamer struct {
	gen            *Generator
	interval       time.Duration
	checkpointFile string
	logger         log.Logger

	index int
}

// NewStreamer creates a Streamer. An empty checkpointFile disables
// resume; the stream then always starts at index zero.
func NewStreamer(gen *Generator, interval time.Duration, checkpointFile string, logger log.Logger) *Streamer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Streamer{
		gen:            gen,
		interval:       interval,
		checkpointFile: checkpointFile,
		logger:         logger,
	}
}

// Run streams alerts until ctx is canceled or maxAlerts have been
// submitted (0 means no limit). Submit errors are logged and the
// stream continues; the checkpoint is saved periodically and on exit.
func (s *Streamer) Run(ctx context.Context, submitter Submitter, maxAlerts int) error {
	s.index = s.loadCheckpoint(ctx)

	s.logger.Info(ctx, "starting alert stream",
		"interval", s.interval.String(),
		"max_alerts", maxAlerts,
		"starting_index", s.index,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.saveCheckpoint(ctx)

	streamed := 0
	for {
		if maxAlerts > 0 && streamed >= maxAlerts {
			s.logger.Info(ctx, "reached max alerts limit", "max_alerts", maxAlerts)
			return nil
		}

		al := s.gen.Alert(s.index)
		if err := submitter.Submit(ctx, al); err != nil {
			s.logger.Error(ctx, err, "alert submit failed", "alert_id", al.ID, "index", s.index)
		}
		s.index++
		streamed++

		if s.index%checkpointEvery == 0 {
			s.saveCheckpoint(ctx)
		}

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "alert stream stopped", "total_streamed", streamed, "final_index", s.index)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Streamer) loadCheckpoint(ctx context.Context) int {
	if s.checkpointFile == "" {
		return 0
	}
	data, err := os.ReadFile(s.checkpointFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(ctx, "failed to load checkpoint", "err", err.Error())
		}
		return 0
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.Warn(ctx, "corrupt checkpoint, starting over", "err", err.Error())
		return 0
	}
	s.logger.Info(ctx, "loaded checkpoint", "index", cp.LastIndex)
	return cp.LastIndex
}

func (s *Streamer) saveCheckpoint(ctx context.Context) {
	if s.checkpointFile == "" {
		return
	}
	data, err := json.Marshal(checkpoint{LastIndex: s.index, Timestamp: time.Now().UTC()})
	if err != nil {
		s.logger.Error(ctx, err, "failed to marshal checkpoint")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.checkpointFile), 0o755); err != nil {
		s.logger.Error(ctx, err, "failed to create checkpoint dir")
		return
	}
	tmp := s.checkpointFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error(ctx, err, "failed to write checkpoint")
		return
	}
	if err := os.Rename(tmp, s.checkpointFile); err != nil {
		s.logger.Error(ctx, err, fmt.Sprintf("failed to move checkpoint into place at %s", s.checkpointFile))
	}
}
