package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	service "github.com/frameproof/frameproof/internal/app"

	"github.com/frameproof/frameproof/internal/adapters/http/api"
	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

type fixture struct {
	mem *repository.MemoryStore
	srv *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemoryStore()
	svc := service.New(
		service.WithPersister(mem),
		service.WithMutationTimeout(2*time.Second),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &fixture{mem: mem, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func (f *fixture) createThread(t *testing.T, clipID string, startMS int64, body string) model.Thread {
	t.Helper()
	resp, raw := f.do(t, http.MethodPost, "/clips/"+clipID+"/threads", map[string]any{
		"t_start_ms": startMS,
		"author_id":  "reviewer-1",
		"body":       body,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create thread: status %d body %s", resp.StatusCode, raw)
	}
	var thread model.Thread
	if err := json.Unmarshal(raw, &thread); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	return thread
}

func TestThreadEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		f := newFixture(t)

		Convey("When a thread is posted with shapes", func() {
			resp, raw := f.do(t, http.MethodPost, "/clips/clip-1/threads", map[string]any{
				"t_start_ms": 12340,
				"author_id":  "reviewer-1",
				"body":       "fix logo",
				"shapes": []map[string]any{{
					"id":     "s1",
					"kind":   "circle",
					"points": []map[string]float64{{"x": 0.125, "y": 0.222}, {"x": 0.1625, "y": 0.222}},
				}},
			})

			Convey("Then it is created with chip 1 and open state", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				var thread model.Thread
				So(json.Unmarshal(raw, &thread), ShouldBeNil)
				So(thread.Chip, ShouldEqual, 1)
				So(thread.State, ShouldEqual, model.ThreadOpen)
				So(thread.Comments, ShouldHaveLength, 1)
			})
		})

		Convey("When a thread request has no author", func() {
			resp, _ := f.do(t, http.MethodPost, "/clips/clip-1/threads", map[string]any{
				"t_start_ms": 100,
				"body":       "anonymous",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a thread carries an unknown shape kind", func() {
			resp, _ := f.do(t, http.MethodPost, "/clips/clip-1/threads", map[string]any{
				"t_start_ms": 100,
				"author_id":  "reviewer-1",
				"body":       "bad shape",
				"shapes":     []map[string]any{{"id": "s1", "kind": "triangle"}},
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing threads filtered by state", func() {
			a := f.createThread(t, "clip-1", 1000, "first")
			f.createThread(t, "clip-1", 2000, "second")
			resp, _ := f.do(t, http.MethodPost, "/threads/"+a.ID+"/resolve", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			resp, raw := f.do(t, http.MethodGet, "/clips/clip-1/threads?state=open", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var open []model.Thread
			So(json.Unmarshal(raw, &open), ShouldBeNil)
			So(open, ShouldHaveLength, 1)
			So(open[0].Comments[0].Body, ShouldEqual, "second")

			resp, raw = f.do(t, http.MethodGet, "/clips/clip-1/threads?state=resolved", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var resolved []model.Thread
			So(json.Unmarshal(raw, &resolved), ShouldBeNil)
			So(resolved, ShouldHaveLength, 1)
			So(resolved[0].ID, ShouldEqual, a.ID)
		})

		Convey("When commenting on a missing thread", func() {
			resp, _ := f.do(t, http.MethodPost, "/threads/ghost/comments", map[string]any{
				"author_id": "reviewer-1",
				"body":      "hello",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When replacing a thread's shapes", func() {
			thread := f.createThread(t, "clip-1", 500, "mark")
			resp, _ := f.do(t, http.MethodPut, "/threads/"+thread.ID+"/shapes", map[string]any{
				"shapes": []map[string]any{{
					"id":     "s2",
					"kind":   "rect",
					"points": []map[string]float64{{"x": 0.1, "y": 0.1}, {"x": 0.3, "y": 0.3}},
				}},
			})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			_, raw := f.do(t, http.MethodGet, "/clips/clip-1/threads", nil)
			var threads []model.Thread
			So(json.Unmarshal(raw, &threads), ShouldBeNil)
			So(threads[0].Shapes, ShouldHaveLength, 1)
			So(threads[0].Shapes[0].Kind, ShouldEqual, model.ShapeRect)
		})
	})
}

func TestClipEndpoints(t *testing.T) {
	Convey("Given a clip with review activity", t, func() {
		f := newFixture(t)
		thread := f.createThread(t, "clip-1", 1000, "note")

		Convey("When the verdict is set and read back", func() {
			resp, _ := f.do(t, http.MethodPut, "/clips/clip-1/status", map[string]any{"status": "approved"})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			resp, raw := f.do(t, http.MethodGet, "/clips/clip-1/status", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "approved")
		})

		Convey("When an unknown verdict is submitted", func() {
			resp, _ := f.do(t, http.MethodPut, "/clips/clip-1/status", map[string]any{"status": "maybe"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the share link is requested twice", func() {
			_, raw1 := f.do(t, http.MethodPost, "/clips/clip-1/share", nil)
			_, raw2 := f.do(t, http.MethodPost, "/clips/clip-1/share", nil)

			var first, second struct {
				Token string `json:"token"`
			}
			So(json.Unmarshal(raw1, &first), ShouldBeNil)
			So(json.Unmarshal(raw2, &second), ShouldBeNil)
			So(first.Token, ShouldNotBeEmpty)
			So(second.Token, ShouldEqual, first.Token)
		})

		Convey("When a round is closed over the wire", func() {
			resp, _ := f.do(t, http.MethodPost, "/threads/"+thread.ID+"/resolve", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			resp, raw := f.do(t, http.MethodPost, "/clips/clip-1/rounds", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var round roundBody
			So(json.Unmarshal(raw, &round), ShouldBeNil)
			So(round.Round, ShouldEqual, 2)

			resp, raw = f.do(t, http.MethodGet, "/clips/clip-1/rounds/history", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var history []model.RoundRecord
			So(json.Unmarshal(raw, &history), ShouldBeNil)
			So(history, ShouldHaveLength, 1)
			So(history[0].Round, ShouldEqual, 1)
		})
	})
}

type roundBody struct {
	Round int `json:"round"`
}

func TestErrorMapping(t *testing.T) {
	Convey("Given a backend that starts failing", t, func() {
		f := newFixture(t)
		f.createThread(t, "clip-1", 100, "seed")

		Convey("When persistence rejects a write as transport failure", func() {
			f.mem.FailNext(fmt.Errorf("%w: connection reset", repository.ErrTransport))
			resp, _ := f.do(t, http.MethodPost, "/clips/clip-1/threads", map[string]any{
				"t_start_ms": 200,
				"author_id":  "reviewer-1",
				"body":       "will fail",
			})

			Convey("Then the API answers 502", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			})

			Convey("Then the optimistic change was rolled back", func() {
				_, raw := f.do(t, http.MethodGet, "/clips/clip-1/threads", nil)
				var threads []model.Thread
				So(json.Unmarshal(raw, &threads), ShouldBeNil)
				So(threads, ShouldHaveLength, 1)
			})
		})

		Convey("When a never-loaded clip cannot be fetched", func() {
			f.mem.FailNext(fmt.Errorf("%w: connection reset", repository.ErrTransport))
			resp, _ := f.do(t, http.MethodGet, "/clips/clip-2/threads", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
		})

		Convey("When the path has no clip id", func() {
			resp, _ := f.do(t, http.MethodGet, "/clips/", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given threads across two clips", t, func() {
		f := newFixture(t)
		f.createThread(t, "clip-a", 100, "a")
		b := f.createThread(t, "clip-b", 200, "b")
		resp, _ := f.do(t, http.MethodPost, "/threads/"+b.ID+"/resolve", nil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		Convey("When stats are fetched", func() {
			resp, raw := f.do(t, http.MethodGet, "/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var stats service.Stats
			So(json.Unmarshal(raw, &stats), ShouldBeNil)
			So(stats.LoadedClips, ShouldEqual, 2)
			So(stats.OpenThreads, ShouldEqual, 1)
			So(stats.ResolvedThreads, ShouldEqual, 1)
		})
	})
}
