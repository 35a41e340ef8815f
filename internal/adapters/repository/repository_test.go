package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// persisterContract runs the behavior shared by every Persister
// implementation.
func persisterContract(t *testing.T, name string, open func(t *testing.T) repository.Persister) {
	ctx := context.Background()

	Convey("Given an empty "+name, t, func() {
		p := open(t)

		Convey("When loading a clip nobody annotated", func() {
			threads, err := p.LoadThreads(ctx, "clip-1")
			So(err, ShouldBeNil)
			So(threads, ShouldBeEmpty)

			round, err := p.CurrentRound(ctx, "clip-1")
			So(err, ShouldBeNil)
			So(round, ShouldEqual, 1)
		})

		Convey("When a thread is inserted with shapes and a comment", func() {
			end := int64(4000)
			thread := model.Thread{
				ID:       "t1",
				ClipID:   "clip-1",
				Chip:     1,
				State:    model.ThreadOpen,
				TStartMS: 2000,
				TEndMS:   &end,
				Round:    1,
				Shapes: []model.Shape{{
					ID:     "s1",
					Kind:   model.ShapeCircle,
					Points: []model.Point{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.5}},
					Color:  "#ff5252",
				}},
				Comments: []model.Comment{{
					ID: "c1", AuthorID: "r1", Body: "fix logo", CreatedAt: time.Now().UTC(),
				}},
				CreatedAt: time.Now().UTC(),
			}
			So(p.InsertThread(ctx, thread), ShouldBeNil)

			Convey("Then it loads back with geometry and range intact", func() {
				threads, err := p.LoadThreads(ctx, "clip-1")
				So(err, ShouldBeNil)
				So(threads, ShouldHaveLength, 1)
				So(threads[0].ID, ShouldEqual, "t1")
				So(threads[0].TEndMS, ShouldNotBeNil)
				So(*threads[0].TEndMS, ShouldEqual, 4000)
				So(threads[0].Shapes, ShouldHaveLength, 1)
				So(threads[0].Shapes[0].Points[0].X, ShouldAlmostEqual, 0.5, 1e-9)
				So(threads[0].Comments[0].Body, ShouldEqual, "fix logo")
			})

			Convey("Then comments append and state updates persist", func() {
				So(p.InsertComment(ctx, "t1", model.Comment{ID: "c2", AuthorID: "r2", Body: "done"}), ShouldBeNil)
				So(p.UpdateThreadState(ctx, "t1", model.ThreadResolved), ShouldBeNil)

				threads, err := p.LoadThreads(ctx, "clip-1")
				So(err, ShouldBeNil)
				So(threads[0].Comments, ShouldHaveLength, 2)
				So(threads[0].State, ShouldEqual, model.ThreadResolved)
			})

			Convey("Then closing a round freezes it and bumps the counter", func() {
				record := model.RoundRecord{
					Round:    1,
					ClosedAt: time.Now().UTC(),
					Threads:  []model.Thread{thread},
				}
				So(p.CloseRound(ctx, "clip-1", record, 2), ShouldBeNil)

				round, err := p.CurrentRound(ctx, "clip-1")
				So(err, ShouldBeNil)
				So(round, ShouldEqual, 2)

				threads, err := p.LoadThreads(ctx, "clip-1")
				So(err, ShouldBeNil)
				So(threads, ShouldBeEmpty)

				history, err := p.RoundHistory(ctx, "clip-1")
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 1)
				So(history[0].Round, ShouldEqual, 1)
				So(history[0].Threads, ShouldHaveLength, 1)
			})
		})

		Convey("When touching a thread that does not exist", func() {
			err := p.InsertComment(ctx, "ghost", model.Comment{ID: "c1", Body: "hello"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			err = p.UpdateThreadState(ctx, "ghost", model.ThreadResolved)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When working with share tokens", func() {
			_, err := p.ShareToken(ctx, "clip-1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			So(p.SaveShareToken(ctx, "clip-1", "tok-1"), ShouldBeNil)
			tok, err := p.ShareToken(ctx, "clip-1")
			So(err, ShouldBeNil)
			So(tok, ShouldEqual, "tok-1")
		})

		Convey("When setting the asset status", func() {
			So(p.UpdateAssetStatus(ctx, "clip-1", model.StatusApproved), ShouldBeNil)

			err := p.UpdateAssetStatus(ctx, "clip-1", model.AssetStatus("maybe"))
			So(errors.Is(err, repository.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	persisterContract(t, "memory store", func(t *testing.T) repository.Persister {
		return repository.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	persisterContract(t, "sqlite store", func(t *testing.T) repository.Persister {
		store, err := repository.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store with failure injection", t, func() {
		mem := repository.NewMemoryStore()

		Convey("When FailNext is armed", func() {
			mem.FailNext(repository.ErrTransport)

			_, err := mem.LoadThreads(ctx, "clip-1")
			So(errors.Is(err, repository.ErrTransport), ShouldBeTrue)

			Convey("Then only one call fails", func() {
				_, err := mem.LoadThreads(ctx, "clip-1")
				So(err, ShouldBeNil)
			})
		})

		Convey("When FailWith is set", func() {
			mem.FailWith(repository.ErrTransport)

			_, err := mem.LoadThreads(ctx, "clip-1")
			So(errors.Is(err, repository.ErrTransport), ShouldBeTrue)
			_, err = mem.CurrentRound(ctx, "clip-1")
			So(errors.Is(err, repository.ErrTransport), ShouldBeTrue)

			Convey("Then clearing it restores service", func() {
				mem.FailWith(nil)
				_, err := mem.LoadThreads(ctx, "clip-1")
				So(err, ShouldBeNil)
			})
		})
	})
}
