package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/archive-threads/internal/identity"
	"github.com/Zuo-Peng/archive-threads/internal/logging"
	"github.com/Zuo-Peng/archive-threads/internal/pipeline"
	"github.com/Zuo-Peng/archive-threads/internal/scan"
	"github.com/Zuo-Peng/archive-threads/internal/thread"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
	Threads int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d threads=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors, s.Threads)
}

type Options struct {
	Workers  int
	Force    bool // re-index archives even when unchanged
	Logger   *log.Logger
	Pipeline pipeline.Options
}

// ThreadKey identifies a thread across archives. It is stable for the same
// archive path and participant set.
func ThreadKey(archive, participantKey string) string {
	sum := sha256.Sum256([]byte(archive + "\x1e" + participantKey))
	return hex.EncodeToString(sum[:6])
}

// IndexAll reconstructs the threads of every archive found under paths and
// stores them. An archive that fails is logged and counted; the others are
// still indexed. Archives whose files are gone are pruned.
func IndexAll(ctx context.Context, db *DB, paths []string, rules *identity.Rules, opts Options) (Stats, error) {
	var stats Stats
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	hash := settingsHash(rules, opts.Pipeline)

	files, err := scan.ScanPaths(paths...)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	var todo []scan.FileInfo
	for _, fi := range files {
		needs := true
		if !opts.Force {
			needs, err = needsUpdate(db, fi, hash)
			if err != nil {
				stats.Errors++
				logger.Warn("check archive", "archive", fi.Path, "err", err)
				continue
			}
		}
		if !needs {
			stats.Skipped++
			continue
		}
		todo = append(todo, fi)
	}

	results := make([]*pipeline.Result, len(todo))
	failures := make([]error, len(todo))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	popts := opts.Pipeline
	popts.Logger = logger
	for i, fi := range todo {
		i, fi := i, fi
		g.Go(func() error {
			results[i], failures[i] = pipeline.RunFile(gctx, fi.Path, rules, popts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for i, fi := range todo {
		if failures[i] != nil {
			stats.Errors++
			logger.Warn("skip archive", "err", failures[i])
			continue
		}
		if err := indexArchive(db, fi, hash, results[i].Threads); err != nil {
			stats.Errors++
			logger.Warn("index archive", "archive", fi.Path, "err", err)
			continue
		}
		stats.Updated++
		stats.Threads += len(results[i].Threads)
		logger.Info("indexed", "archive", fi.Path, "threads", len(results[i].Threads), "messages", results[i].Stats.Messages)
	}

	pruned, err := pruneArchives(db)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

// settingsHash identifies the settings that decide how an archive's
// messages are grouped into threads.
func settingsHash(rules *identity.Rules, popts pipeline.Options) string {
	if popts.Extract.Chronological {
		return rules.Fingerprint() + ":chronological"
	}
	return rules.Fingerprint()
}

func needsUpdate(db *DB, fi scan.FileInfo, hash string) (bool, error) {
	info, err := db.GetArchiveInfo(fi.Path)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new archive
	}
	return info.Mtime != fi.Mtime || info.Size != fi.Size || info.RulesHash != hash, nil
}

// IndexThreads stores threads for archive, replacing whatever that archive
// held before.
func IndexThreads(db *DB, archive string, threads []thread.Thread) error {
	return indexArchive(db, scan.FileInfo{Path: archive}, "", threads)
}

func indexArchive(db *DB, fi scan.FileInfo, hash string, threads []thread.Thread) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// delete old data first
	if err := deleteArchiveTx(tx, fi.Path); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO archives (path, mtime, size, indexed_at, rules_hash) VALUES (?, ?, ?, ?, ?)`,
		fi.Path, fi.Mtime, fi.Size, time.Now().UTC().Format(TimeFormat), hash,
	)
	if err != nil {
		return err
	}

	threadStmt, err := tx.Prepare(
		`INSERT INTO threads (thread_key, archive, participant_key, label, started_at, ended_at, message_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer threadStmt.Close()

	msgStmt, err := tx.Prepare(
		`INSERT INTO messages (thread_key, seq, source_order, ts, sender, body, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer msgStmt.Close()

	for _, th := range threads {
		key := ThreadKey(fi.Path, th.Key())
		_, err := threadStmt.Exec(
			key,
			fi.Path,
			th.Key(),
			th.Label,
			th.Start().UTC().Format(TimeFormat),
			th.End().UTC().Format(TimeFormat),
			len(th.Messages),
		)
		if err != nil {
			return fmt.Errorf("thread %s: %w", th.Label, err)
		}

		for seq, m := range th.Messages {
			_, err := msgStmt.Exec(
				key,
				seq,
				m.SourceOrder,
				m.Timestamp.UTC().Format(TimeFormat),
				m.Sender,
				m.Body,
				m.Line,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// pruneArchives drops archives whose files no longer exist.
func pruneArchives(db *DB) (int, error) {
	all, err := db.AllArchives()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for path := range all {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := db.DeleteArchive(path); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
