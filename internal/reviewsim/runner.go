// Package reviewsim drives a scripted review session against a running
// service over HTTP, exercising the full flow a reviewer would: draw,
// comment, resolve, share, close the round, and scrub the timeline.
package reviewsim

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/frameproof/frameproof/internal/domain/canvas"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/internal/domain/playback"
	"github.com/frameproof/frameproof/pkg/logger"
)

// Run executes the complete simulated review session.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting review session",
		logger.String("baseURL", config.BaseURL),
		logger.String("clipID", config.ClipID),
		logger.Int("threads", config.Threads),
		logger.String("timeout", config.Timeout.String()))

	c := newClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, c); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	threads, err := annotateClip(ctx, c, config, stats)
	if err != nil {
		return fmt.Errorf("annotation pass failed: %w", err)
	}

	if err := discussThreads(ctx, c, config, threads, stats); err != nil {
		return fmt.Errorf("discussion pass failed: %w", err)
	}

	if err := resolvePass(ctx, c, config, threads, stats); err != nil {
		return fmt.Errorf("resolve pass failed: %w", err)
	}

	if err := verifyShareIdempotency(ctx, c, config); err != nil {
		return fmt.Errorf("share verification failed: %w", err)
	}

	if err := scrubTimeline(ctx, c, config, stats); err != nil {
		return fmt.Errorf("timeline scrub failed: %w", err)
	}

	if err := closeRound(ctx, c, config); err != nil {
		return fmt.Errorf("round close failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "review session completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *client) error {
	logger.Get().Info(ctx, "checking service health")
	status, err := c.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// annotateClip draws one mark per thread on a local canvas, completes it
// into fractional shapes, and posts the thread.
func annotateClip(ctx context.Context, c *client, config *Config, stats *Stats) ([]model.Thread, error) {
	tools := []canvas.Tool{canvas.ToolCircle, canvas.ToolRectangle, canvas.ToolFreehand, canvas.ToolText}
	threads := make([]model.Thread, 0, config.Threads)

	for i := 0; i < config.Threads; i++ {
		surface := canvas.New(canvas.WithStyle("#ff5252", 3))
		tool := tools[i%len(tools)]
		if err := surface.Begin(tool); err != nil {
			return nil, err
		}

		anchor := model.Point{
			X: rand.Float64() * config.FrameW,
			Y: rand.Float64() * config.FrameH,
		}
		if tool == canvas.ToolFreehand {
			surface.AddFreehandPoint(anchor)
			surface.AddFreehandPoint(model.Point{X: anchor.X + 12, Y: anchor.Y + 4})
			surface.AddFreehandPoint(model.Point{X: anchor.X + 25, Y: anchor.Y - 3})
			surface.EndStroke()
		} else {
			if err := surface.PlaceShape(tool, anchor); err != nil {
				return nil, err
			}
			if tool == canvas.ToolText {
				surface.SetText(surface.Shapes()[0].ID, fmt.Sprintf("note %d", i+1))
			}
		}

		shapes, err := surface.Complete(config.FrameW, config.FrameH)
		if err != nil {
			return nil, err
		}

		var thread model.Thread
		status, err := c.post(ctx, "/clips/"+config.ClipID+"/threads", map[string]any{
			"t_start_ms": int64(rand.Intn(config.DurationS * 1000)),
			"author_id":  "sim-reviewer",
			"body":       fmt.Sprintf("issue %d", i+1),
			"shapes":     shapes,
		}, &thread)
		if err != nil {
			return nil, err
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("create thread: unexpected status %d", status)
		}

		// Chips must be strictly increasing and never reused.
		if want := i + 1; thread.Chip != want {
			return nil, fmt.Errorf("chip mismatch: got %d, want %d", thread.Chip, want)
		}
		threads = append(threads, thread)
		stats.ThreadsCreated++
	}

	logger.Get().Info(ctx, "annotation pass complete", logger.Int("threads", stats.ThreadsCreated))
	return threads, nil
}

// discussThreads replies once on every thread.
func discussThreads(ctx context.Context, c *client, config *Config, threads []model.Thread, stats *Stats) error {
	for _, t := range threads {
		status, err := c.post(ctx, "/threads/"+t.ID+"/comments", map[string]any{
			"author_id": "sim-editor",
			"body":      "done, please check",
		}, nil)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("add comment: unexpected status %d", status)
		}
		stats.CommentsAdded++
	}
	return nil
}

// resolvePass resolves every other thread, reopens one, and checks that
// the open/resolved selectors agree with what it did.
func resolvePass(ctx context.Context, c *client, config *Config, threads []model.Thread, stats *Stats) error {
	for i, t := range threads {
		if i%2 != 0 {
			continue
		}
		if status, err := c.post(ctx, "/threads/"+t.ID+"/resolve", nil, nil); err != nil {
			return err
		} else if status != http.StatusOK {
			return fmt.Errorf("resolve: unexpected status %d", status)
		}
		stats.ThreadsResolved++
	}

	if len(threads) > 0 {
		if status, err := c.post(ctx, "/threads/"+threads[0].ID+"/reopen", nil, nil); err != nil {
			return err
		} else if status != http.StatusOK {
			return fmt.Errorf("reopen: unexpected status %d", status)
		}
		stats.ThreadsReopened++
	}

	var open, resolved []model.Thread
	if _, err := c.get(ctx, "/clips/"+config.ClipID+"/threads?state=open", &open); err != nil {
		return err
	}
	if _, err := c.get(ctx, "/clips/"+config.ClipID+"/threads?state=resolved", &resolved); err != nil {
		return err
	}
	wantResolved := stats.ThreadsResolved - stats.ThreadsReopened
	if len(resolved) != wantResolved {
		return fmt.Errorf("resolved selector: got %d, want %d", len(resolved), wantResolved)
	}
	if len(open)+len(resolved) != len(threads) {
		return fmt.Errorf("selectors do not partition: %d open + %d resolved != %d",
			len(open), len(resolved), len(threads))
	}
	return nil
}

// verifyShareIdempotency mashes the share button.
func verifyShareIdempotency(ctx context.Context, c *client, config *Config) error {
	var first, second struct {
		Token string `json:"token"`
	}
	if _, err := c.post(ctx, "/clips/"+config.ClipID+"/share", nil, &first); err != nil {
		return err
	}
	if _, err := c.post(ctx, "/clips/"+config.ClipID+"/share", nil, &second); err != nil {
		return err
	}
	if first.Token == "" || first.Token != second.Token {
		return fmt.Errorf("share token not idempotent: %q vs %q", first.Token, second.Token)
	}
	logger.Get().Info(ctx, "share token verified", logger.String("token", first.Token))
	return nil
}

// scrubTimeline fetches the thread list and sweeps a synchronizer across
// the clip, counting visibility transitions the way a host player would.
func scrubTimeline(ctx context.Context, c *client, config *Config, stats *Stats) error {
	var threads []model.Thread
	if _, err := c.get(ctx, "/clips/"+config.ClipID+"/threads", &threads); err != nil {
		return err
	}

	p := playback.New()
	const stepMS = 250
	for now := int64(0); now <= int64(config.DurationS*1000); now += stepMS {
		u := p.Step(threads, now)
		if u.Changed {
			stats.Transitions++
			if u.Visible {
				if _, err := p.Project(u.Thread, config.FrameW, config.FrameH); err != nil {
					return fmt.Errorf("project thread %s: %w", u.Thread.ID, err)
				}
			}
		}
	}

	logger.Get().Info(ctx, "timeline scrub complete", logger.Int("transitions", stats.Transitions))
	return nil
}

// closeRound advances the feedback round and checks the frozen history.
func closeRound(ctx context.Context, c *client, config *Config) error {
	var round struct {
		Round int `json:"round"`
	}
	if status, err := c.post(ctx, "/clips/"+config.ClipID+"/rounds", nil, &round); err != nil {
		return err
	} else if status != http.StatusOK {
		return fmt.Errorf("advance round: unexpected status %d", status)
	}

	var history []model.RoundRecord
	if _, err := c.get(ctx, "/clips/"+config.ClipID+"/rounds/history", &history); err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("round history is empty after advancing")
	}
	last := history[len(history)-1]
	if last.Round != round.Round-1 {
		return fmt.Errorf("history round mismatch: frozen %d, now on %d", last.Round, round.Round)
	}

	logger.Get().Info(ctx, "round closed",
		logger.Int("round", round.Round),
		logger.Int("frozenThreads", len(last.Threads)))
	return nil
}

// displayFinalStats prints the final session statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("threadsCreated", stats.ThreadsCreated),
		logger.Int("commentsAdded", stats.CommentsAdded),
		logger.Int("threadsResolved", stats.ThreadsResolved),
		logger.Int("threadsReopened", stats.ThreadsReopened),
		logger.Int("playbackTransitions", stats.Transitions),
		logger.String("duration", stats.Duration.String()))
}
