// Package pipeline wires extraction, identity normalization, segmentation
// and merging into a single pass over one archive, and runs independent
// archives in parallel.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Zuo-Peng/archive-threads/internal/identity"
	"github.com/Zuo-Peng/archive-threads/internal/logging"
	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/Zuo-Peng/archive-threads/internal/thread"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	StageRead    = "read"
	StageExtract = "extract"
	StageRules   = "rules"
	StageMerge   = "merge"
)

// ErrConservation means the merged threads do not hold exactly the
// extracted messages.
var ErrConservation = errors.New("message count not conserved")

// StageError names the stage and archive an error came from.
type StageError struct {
	Stage   string
	Archive string
	Err     error
}

func (e *StageError) Error() string {
	if e.Archive == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Archive, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Stats struct {
	Messages  int
	Blocks    int
	Fragments int
	Threads   int
}

func (s Stats) String() string {
	return fmt.Sprintf("messages=%d blocks=%d fragments=%d threads=%d",
		s.Messages, s.Blocks, s.Fragments, s.Threads)
}

type Result struct {
	Archive string
	Threads []thread.Thread
	Stats   Stats
}

type Options struct {
	Extract parse.Options
	Logger  *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// Run reconstructs the threads of one archive. No threads are returned
// unless every stage succeeds.
func Run(ctx context.Context, r io.Reader, rules *identity.Rules, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := opts.logger()

	archive, err := parse.Extract(r, opts.Extract)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("extracted", "blocks", len(archive.Blocks), "messages", len(archive.Messages))

	key := thread.BlockParticipants(archive, rules)
	fragments := thread.Segment(thread.NormalizeSenders(archive.Messages, rules), key)
	threads := thread.Merge(fragments, rules.Owner())

	stats := Stats{
		Messages:  len(archive.Messages),
		Blocks:    len(archive.Blocks),
		Fragments: len(fragments),
		Threads:   len(threads),
	}
	total := 0
	for _, th := range threads {
		total += len(th.Messages)
	}
	if total != stats.Messages {
		return nil, &StageError{
			Stage: StageMerge,
			Err:   fmt.Errorf("%w: extracted %d, threaded %d", ErrConservation, stats.Messages, total),
		}
	}
	logger.Debug("merged", "fragments", stats.Fragments, "threads", stats.Threads)

	return &Result{Threads: threads, Stats: stats}, nil
}

// RunFile runs the pipeline over the archive at path.
func RunFile(ctx context.Context, path string, rules *identity.Rules, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StageError{Stage: StageRead, Archive: path, Err: err}
	}
	defer f.Close()

	opts.Logger = opts.logger().With("archive", path)
	res, err := Run(ctx, f, rules, opts)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) && se.Archive == "" {
			se.Archive = path
		}
		return nil, err
	}
	res.Archive = path
	return res, nil
}

// RunAll processes independent archives with at most workers running at
// once. Results come back in the order of paths. The first failure cancels
// the rest and no results are returned.
func RunAll(ctx context.Context, paths []string, rules *identity.Rules, workers int, opts Options) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := RunFile(ctx, path, rules, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LoadRules builds the identity rules from cfg, merging in the rename rules
// file at replaceFile when it is set. Failures are reported as the rules
// stage.
func LoadRules(cfg identity.RulesConfig, replaceFile string) (*identity.Rules, error) {
	if replaceFile != "" {
		subs, err := identity.LoadRulesFile(replaceFile)
		if err != nil {
			return nil, &StageError{Stage: StageRules, Archive: replaceFile, Err: err}
		}
		merged := make(map[string]string, len(subs)+len(cfg.Substitutions))
		for k, v := range subs {
			merged[k] = v
		}
		for k, v := range cfg.Substitutions {
			if prev, ok := merged[k]; ok && prev != v {
				return nil, &StageError{Stage: StageRules, Archive: replaceFile, Err: &identity.ConflictingSubstitutionRuleError{
					Token:  k,
					Values: []string{prev, v},
				}}
			}
			merged[k] = v
		}
		cfg.Substitutions = merged
	}

	rules, err := identity.NewRules(cfg)
	if err != nil {
		return nil, &StageError{Stage: StageRules, Err: err}
	}
	return rules, nil
}
