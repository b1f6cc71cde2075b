package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/compiler"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/metrics"
	"github.com/roach88/lodestar/internal/store"
)

// loadContent compiles dir, collecting every load error. Errors are
// reported through f; a missing or empty directory is a command error,
// anything else a content failure.
func loadContent(f *OutputFormatter, dir string) (*compiler.Content, error) {
	content, errs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if len(errs) == 0 {
		f.VerboseLog("Loaded %d graph(s) from %d file(s) in %s", len(content.Graphs), content.Files, dir)
		return content, nil
	}

	code := compiler.ErrCodeGeneric
	var le *compiler.LoadError
	if errors.As(errs[0], &le) {
		code = le.Code
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	var details any
	if len(msgs) > 1 {
		details = msgs
	}
	if err := f.Error(code, msgs[0], details); err != nil {
		return nil, err
	}

	exit := ExitFailure
	switch code {
	case compiler.ErrCodeNotFound, compiler.ErrCodeNoFiles, compiler.ErrCodeScanError:
		exit = ExitCommandError
	}
	return nil, WrapExitError(exit, "content failed to load", errors.Join(errs...))
}

// session is one game slot opened for a command: content registered,
// state restored from the store.
type session struct {
	opts    *RootOptions
	store   *store.Store
	world   *collab.World
	engine  *engine.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// openSession loads content, opens the database and restores the
// configured slot. With fresh set the slot is not read: the session
// starts a new game on world.
func openSession(ctx context.Context, f *OutputFormatter, opts *RootOptions, fresh bool, world *collab.World) (*session, error) {
	content, err := loadContent(f, opts.Config.ContentDir)
	if err != nil {
		return nil, err
	}

	st, err := openStore(f, opts)
	if err != nil {
		return nil, err
	}

	s := &session{
		opts:    opts,
		store:   st,
		metrics: metrics.New(),
		logger:  opts.Config.Logger(f.GetErrWriter()),
	}

	var save store.Save
	if !fresh {
		save, err = st.LoadSlot(ctx, opts.Config.Slot)
		if err != nil {
			st.Close()
			if errors.Is(err, store.ErrSlotNotFound) {
				msg := fmt.Sprintf("no game in slot %q; run lodestar new", opts.Config.Slot)
				if outErr := f.Error(ErrCodeCommand, msg, nil); outErr != nil {
					return nil, outErr
				}
				return nil, NewExitError(ExitCommandError, msg)
			}
			return nil, f.rejected(fmt.Errorf("load slot %q: %w", opts.Config.Slot, err))
		}
		world = collab.WorldFromState(save.World)
	}
	s.world = world
	s.engine = engine.New(world, engine.WithLogger(s.logger), engine.WithMetrics(s.metrics))

	if err := s.engine.Register(content.Graphs); err != nil {
		st.Close()
		return nil, f.rejected(err)
	}
	if fresh {
		s.engine.NewGame()
		return s, nil
	}
	if err := s.engine.Restore(save.Snapshot); err != nil {
		st.Close()
		return nil, f.rejected(err)
	}
	f.VerboseLog("Restored slot %q at seq %d", opts.Config.Slot, save.Snapshot.Seq)
	return s, nil
}

func openStore(f *OutputFormatter, opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.Config.DBPath)
	if err != nil {
		msg := fmt.Sprintf("failed to open database %s", opts.Config.DBPath)
		if outErr := f.Error(ErrCodeCommand, msg, err.Error()); outErr != nil {
			return nil, outErr
		}
		return nil, WrapExitError(ExitCommandError, msg, err)
	}
	return st, nil
}

// save writes the engine and world back to the slot.
func (s *session) save(ctx context.Context) error {
	return s.store.SaveSlot(ctx, s.opts.Config.Slot, store.Save{
		Snapshot: s.engine.Serialize(),
		World:    s.world.State(),
	})
}

// close writes the metrics textfile when configured and closes the store.
func (s *session) close() error {
	var errs []error
	if path := s.opts.Config.MetricsFile; path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
