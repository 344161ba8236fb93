package audit_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"unireg/internal/audit"
	"unireg/internal/audit/store/history"
	"unireg/internal/audit/store/version"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/requestcontext"
)

type TrailSuite struct {
	suite.Suite
	history  *history.MemoryStore
	versions *version.MemoryStore
	trail    *audit.Trail
	ctx      context.Context
	actor    audit.Actor
}

func TestTrailSuite(t *testing.T) {
	suite.Run(t, new(TrailSuite))
}

func (s *TrailSuite) SetupTest() {
	s.history = history.NewMemory()
	s.versions = version.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := audit.NewPublisher(s.history, audit.WithPublisherLogger(logger))
	trail, err := audit.New(publisher, s.history, s.versions, audit.WithLogger(logger))
	s.Require().NoError(err)
	s.trail = trail
	s.ctx = context.Background()
	s.actor = audit.Actor{ID: "clerk-7", Name: "G. Havel"}
}

func (s *TrailSuite) TestNew() {
	s.Run("nil publisher rejected", func() {
		_, err := audit.New(nil, s.history, s.versions)
		s.Error(err)
	})

	s.Run("nil version store rejected", func() {
		publisher := audit.NewPublisher(s.history)
		_, err := audit.New(publisher, s.history, nil)
		s.Error(err)
	})
}

func (s *TrailSuite) TestRecordFieldChanges() {
	s.Run("only changed fields produce entries", func() {
		old := map[string]any{"a": 1, "b": 2}
		updated := map[string]any{"a": 1, "b": 3}

		err := s.trail.RecordFieldChanges(s.ctx, "declaration", "d-1", old, updated, s.actor)
		s.Require().NoError(err)

		entries, err := s.history.ListByEntity(s.ctx, "declaration", "d-1", 10)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.OpUpdate, entries[0].Operation)
		s.Equal("b", entries[0].FieldName)
		s.Equal("2", entries[0].OldValue)
		s.Equal("3", entries[0].NewValue)
		s.Equal("clerk-7", entries[0].ActorID)
		s.Equal("G. Havel", entries[0].ActorName)
	})

	s.Run("fields absent from the new snapshot produce no entry", func() {
		old := map[string]any{"a": 1, "gone": "x"}
		updated := map[string]any{"a": 1}

		err := s.trail.RecordFieldChanges(s.ctx, "declaration", "d-2", old, updated, s.actor)
		s.Require().NoError(err)

		entries, err := s.history.ListByEntity(s.ctx, "declaration", "d-2", 10)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("new fields count as changed", func() {
		err := s.trail.RecordFieldChanges(s.ctx, "declaration", "d-3",
			map[string]any{}, map[string]any{"place": "Brno"}, s.actor)
		s.Require().NoError(err)

		entries, err := s.history.ListByEntity(s.ctx, "declaration", "d-3", 10)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("place", entries[0].FieldName)
		s.Equal("", entries[0].OldValue)
		s.Equal("Brno", entries[0].NewValue)
	})

	s.Run("type change is a strict change", func() {
		err := s.trail.RecordFieldChanges(s.ctx, "declaration", "d-4",
			map[string]any{"n": 1}, map[string]any{"n": "1"}, s.actor)
		s.Require().NoError(err)

		entries, err := s.history.ListByEntity(s.ctx, "declaration", "d-4", 10)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("empty entity id rejected", func() {
		err := s.trail.RecordFieldChanges(s.ctx, "declaration", "", nil, nil, s.actor)
		s.Require().Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
	})
}

func (s *TrailSuite) TestCreateVersion() {
	s.Run("versions count up from one", func() {
		for i := 1; i <= 3; i++ {
			record, err := s.trail.CreateVersion(s.ctx, "d-10",
				map[string]any{"rev": i}, s.actor)
			s.Require().NoError(err)
			s.Equal(i, record.Version)
			s.Equal(audit.VersionActive, record.Status)
		}
	})

	s.Run("nil snapshot rejected", func() {
		_, err := s.trail.CreateVersion(s.ctx, "d-10", nil, s.actor)
		s.Require().Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
	})
}

// Under concurrent creators the assigned versions are exactly 1..K with no
// duplicates; losing a race means getting the next number, not the same one.
func (s *TrailSuite) TestCreateVersionConcurrent() {
	const callers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	versions := make(map[int]struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := s.trail.CreateVersion(s.ctx, "d-race",
				map[string]any{"k": "v"}, s.actor)
			require.NoError(s.T(), err)
			mu.Lock()
			versions[record.Version] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(versions, callers)
	for v := 1; v <= callers; v++ {
		s.Contains(versions, v)
	}
}

func (s *TrailSuite) TestArchive() {
	_, err := s.trail.CreateVersion(s.ctx, "d-20", map[string]any{"rev": 1}, s.actor)
	s.Require().NoError(err)
	_, err = s.trail.CreateVersion(s.ctx, "d-20", map[string]any{"rev": 2}, s.actor)
	s.Require().NoError(err)

	err = s.trail.Archive(s.ctx, "declaration", "d-20", s.actor)
	s.Require().NoError(err)

	s.Run("no active version remains", func() {
		_, err := s.trail.CurrentVersion(s.ctx, "d-20")
		s.Require().Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("archived rows keep their snapshots", func() {
		chain, err := s.versions.List(s.ctx, "d-20")
		s.Require().NoError(err)
		s.Require().Len(chain, 2)
		for _, r := range chain {
			s.Equal(audit.VersionArchived, r.Status)
			s.NotNil(r.ArchivedAt)
		}
	})

	s.Run("archive entry emitted", func() {
		entries, err := s.trail.History(s.ctx, "declaration", "d-20")
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.OpArchive, entries[0].Operation)
	})
}

func (s *TrailSuite) TestHistory() {
	s.Run("newest first", func() {
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			ctx := requestcontext.WithTime(s.ctx, base.Add(time.Duration(i)*time.Minute))
			err := s.trail.RecordCreate(ctx, "declaration", "d-30", s.actor,
				map[string]string{"n": fmt.Sprint(i)})
			s.Require().NoError(err)
		}

		entries, err := s.trail.History(s.ctx, "declaration", "d-30")
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		s.True(entries[0].Timestamp.After(entries[1].Timestamp))
		s.True(entries[1].Timestamp.After(entries[2].Timestamp))
	})

	s.Run("bounded by page size", func() {
		publisher := audit.NewPublisher(s.history)
		trail, err := audit.New(publisher, s.history, s.versions, audit.WithHistoryPageSize(2))
		s.Require().NoError(err)

		for i := 0; i < 5; i++ {
			err := trail.RecordCreate(s.ctx, "declaration", "d-31", s.actor, nil)
			s.Require().NoError(err)
		}
		entries, err := trail.History(s.ctx, "declaration", "d-31")
		s.Require().NoError(err)
		s.Len(entries, 2)
	})
}

func (s *TrailSuite) TestCurrentVersion() {
	_, err := s.trail.CreateVersion(s.ctx, "d-40", map[string]any{"rev": 1}, s.actor)
	s.Require().NoError(err)
	record, err := s.trail.CreateVersion(s.ctx, "d-40", map[string]any{"rev": 2}, s.actor)
	s.Require().NoError(err)

	current, err := s.trail.CurrentVersion(s.ctx, "d-40")
	s.Require().NoError(err)
	s.Equal(record.Version, current.Version)
	s.Equal(2, current.Version)
}
