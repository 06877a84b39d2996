package frameloop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"lyricreel/internal/encoder"
	"lyricreel/internal/logging"
)

type call struct {
	op    string
	frame int
}

type recorder struct {
	calls []call
}

func (r *recorder) add(op string, frame int) { r.calls = append(r.calls, call{op, frame}) }

func (r *recorder) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

type fakeRenderer struct {
	rec        *recorder
	current    int
	advanceErr map[int]error
	captureErr map[int]error
	onAdvance  func(frame int)
	closeErr   error
}

func (f *fakeRenderer) Advance(_ context.Context, frame int, rate float64) error {
	f.rec.add("advance", frame)
	if f.onAdvance != nil {
		f.onAdvance(frame)
	}
	if err := f.advanceErr[frame]; err != nil {
		return err
	}
	f.current = frame
	return nil
}

func (f *fakeRenderer) Capture(context.Context) ([]byte, error) {
	f.rec.add("capture", f.current)
	if err := f.captureErr[f.current]; err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("frame-%d", f.current)), nil
}

func (f *fakeRenderer) Close() error {
	f.rec.add("close", -1)
	return f.closeErr
}

type fakeSink struct {
	rec       *recorder
	frames    []string
	closeAt   int
	finishErr error

	// Observed while Finish runs; Run cancels the context afterwards.
	finishCtxErr      error
	finishHasDeadline bool
}

func (s *fakeSink) Submit(_ context.Context, frame []byte) error {
	if s.closeAt >= 0 && len(s.frames) >= s.closeAt {
		s.rec.add("submit-closed", len(s.frames))
		return encoder.ErrChannelClosed
	}
	s.rec.add("submit", len(s.frames))
	s.frames = append(s.frames, string(frame))
	return nil
}

func (s *fakeSink) Finish(ctx context.Context) (encoder.Result, error) {
	s.rec.add("finish", -1)
	s.finishCtxErr = ctx.Err()
	_, s.finishHasDeadline = ctx.Deadline()
	return encoder.Result{FramesWritten: len(s.frames)}, s.finishErr
}

type countingReporter struct {
	done  []int
	ended int
}

func (r *countingReporter) Frame(done, _ int) { r.done = append(r.done, done) }
func (r *countingReporter) Done()             { r.ended++ }

func newFixture() (*recorder, *fakeRenderer, *fakeSink, *countingReporter) {
	rec := &recorder{}
	return rec, &fakeRenderer{rec: rec}, &fakeSink{rec: rec, closeAt: -1}, &countingReporter{}
}

func TestTotalFrames(t *testing.T) {
	tests := []struct {
		duration, rate float64
		want           int
	}{
		{2, 10, 20},
		{1.04, 30, 31},
		{1.05, 30, 32},
		{215.3, 29.97, 6453},
		{0, 30, 0},
		{3, 0, 0},
		{-1, 30, 0},
	}
	for _, tt := range tests {
		if got := TotalFrames(tt.duration, tt.rate); got != tt.want {
			t.Fatalf("TotalFrames(%v, %v) = %d, want %d", tt.duration, tt.rate, got, tt.want)
		}
	}
}

func TestRunRendersEveryFrameInOrder(t *testing.T) {
	rec, renderer, sink, reporter := newFixture()
	var transitions []string
	loop := &Loop{
		Renderer: renderer,
		Sink:     sink,
		Rate:     10,
		Reporter: reporter,
		Logger:   logging.NewNop(),
		Observer: func(tr Transition) { transitions = append(transitions, tr.String()) },
	}

	total := TotalFrames(2, 10)
	summary, err := loop.Run(context.Background(), total)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 20 || summary.Submitted != 20 || summary.EarlyStop || summary.Canceled {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, op := range []string{"advance", "capture", "submit"} {
		if n := rec.count(op); n != 20 {
			t.Fatalf("%s called %d times, want 20", op, n)
		}
	}
	if rec.count("finish") != 1 || rec.count("close") != 1 {
		t.Fatalf("finish/close counts wrong: %+v", rec.calls)
	}
	for i, got := range sink.frames {
		if want := fmt.Sprintf("frame-%d", i); got != want {
			t.Fatalf("submitted frame %d = %q, want %q", i, got, want)
		}
	}
	for i := 0; i < 20; i++ {
		triple := rec.calls[i*3 : i*3+3]
		if triple[0] != (call{"advance", i}) || triple[1] != (call{"capture", i}) || triple[2] != (call{"submit", i}) {
			t.Fatalf("frame %d not lockstep: %+v", i, triple)
		}
	}
	last := rec.calls[len(rec.calls)-2:]
	if last[0].op != "finish" || last[1].op != "close" {
		t.Fatalf("expected finish then close, got %+v", last)
	}
	if len(reporter.done) != 20 || reporter.done[19] != 20 || reporter.ended != 1 {
		t.Fatalf("reporter saw %v, ended %d", reporter.done, reporter.ended)
	}
	if transitions[0] != "idle" || transitions[1] != "rendering(0)" || transitions[2] != "submitting(0)" {
		t.Fatalf("unexpected transitions %v", transitions[:3])
	}
	if tail := strings.Join(transitions[len(transitions)-2:], ","); tail != "draining,closed" {
		t.Fatalf("unexpected final transitions %s", tail)
	}
}

func TestRunStopsWhenEncoderClosesInput(t *testing.T) {
	rec, renderer, sink, _ := newFixture()
	sink.closeAt = 7
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30}

	summary, err := loop.Run(context.Background(), 100)
	if err != nil {
		t.Fatalf("early stop must not be an error: %v", err)
	}
	if !summary.EarlyStop || summary.Submitted != 7 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if n := rec.count("advance"); n != 8 {
		t.Fatalf("advance called %d times, want 8", n)
	}
	if n := rec.count("capture"); n != 8 {
		t.Fatalf("capture called %d times, want 8", n)
	}
	if rec.count("finish") != 1 || rec.count("close") != 1 {
		t.Fatalf("finish/close counts wrong: %+v", rec.calls)
	}
	for _, c := range rec.calls[len(rec.calls)-3:] {
		if c.op == "advance" {
			t.Fatal("no frame may be advanced after the channel closed")
		}
	}
}

func TestRunAbortsOnAdvanceError(t *testing.T) {
	rec, renderer, sink, _ := newFixture()
	boom := errors.New("page crashed")
	renderer.advanceErr = map[int]error{4: boom}
	var states []State
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30, Observer: func(tr Transition) { states = append(states, tr.State) }}

	summary, err := loop.Run(context.Background(), 10)
	if !errors.Is(err, boom) {
		t.Fatalf("expected advance error, got %v", err)
	}
	if summary.Submitted != 4 {
		t.Fatalf("submitted %d frames, want 4", summary.Submitted)
	}
	if rec.count("advance") != 5 || rec.count("capture") != 4 {
		t.Fatalf("no retries expected: %+v", rec.calls)
	}
	if rec.count("finish") != 1 || rec.count("close") != 1 {
		t.Fatal("finish and close must run on abort")
	}
	if states[len(states)-2] != StateAborting || states[len(states)-1] != StateClosed {
		t.Fatalf("unexpected final states %v", states[len(states)-2:])
	}
}

func TestRunAbortsOnCaptureError(t *testing.T) {
	_, renderer, sink, _ := newFixture()
	renderer.captureErr = map[int]error{0: errors.New("screenshot failed")}
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30}

	summary, err := loop.Run(context.Background(), 3)
	if err == nil || !strings.Contains(err.Error(), "capture frame 0") {
		t.Fatalf("expected capture error, got %v", err)
	}
	if summary.Submitted != 0 || len(sink.frames) != 0 {
		t.Fatal("nothing may be submitted after a failed capture")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	rec, renderer, sink, _ := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	renderer.onAdvance = func(frame int) {
		if frame == 2 {
			cancel()
		}
	}
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30, FinishTimeout: time.Second}

	summary, err := loop.Run(ctx, 50)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !summary.Canceled {
		t.Fatal("summary must record cancellation")
	}
	if rec.count("advance") != 3 {
		t.Fatalf("advance called %d times, want 3", rec.count("advance"))
	}
	if rec.count("finish") != 1 || rec.count("close") != 1 {
		t.Fatal("finish and close must run after cancellation")
	}
	if sink.finishCtxErr != nil {
		t.Fatalf("finish context must not inherit cancellation, got %v", sink.finishCtxErr)
	}
	if !sink.finishHasDeadline {
		t.Fatal("finish context must carry a deadline")
	}
}

func TestRunJoinsFinishError(t *testing.T) {
	_, renderer, sink, _ := newFixture()
	sink.finishErr = encoder.ErrFinishTimeout
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30}

	_, err := loop.Run(context.Background(), 2)
	if !errors.Is(err, encoder.ErrFinishTimeout) {
		t.Fatalf("expected finish error, got %v", err)
	}
}

func TestRunRendererCloseErrorIsLogged(t *testing.T) {
	_, renderer, sink, _ := newFixture()
	renderer.closeErr = errors.New("browser gone")
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30}

	if _, err := loop.Run(context.Background(), 1); err != nil {
		t.Fatalf("close failure must not fail the run: %v", err)
	}
}

func TestRunZeroFrames(t *testing.T) {
	rec, renderer, sink, _ := newFixture()
	loop := &Loop{Renderer: renderer, Sink: sink, Rate: 30}
	summary, err := loop.Run(context.Background(), 0)
	if err != nil || summary.Submitted != 0 {
		t.Fatalf("unexpected result %+v %v", summary, err)
	}
	if rec.count("finish") != 1 || rec.count("close") != 1 {
		t.Fatal("finish and close must run for an empty timeline")
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	rec, renderer, sink, _ := newFixture()
	if _, err := (&Loop{Renderer: renderer, Sink: sink}).Run(context.Background(), 1); err == nil {
		t.Fatal("expected error for zero rate")
	}
	if _, err := (&Loop{Renderer: renderer, Sink: sink, Rate: 1}).Run(context.Background(), -1); err == nil {
		t.Fatal("expected error for negative total")
	}
	if _, err := (&Loop{Sink: sink, Rate: 1}).Run(context.Background(), 1); !errors.Is(err, ErrInvalidLoop) {
		t.Fatalf("expected ErrInvalidLoop for missing renderer, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("invalid input must leave renderer and sink untouched, got %v", rec.calls)
	}
}

func TestStateString(t *testing.T) {
	if StateSubmitting.String() != "submitting" || State(42).String() != "state(42)" {
		t.Fatal("unexpected state names")
	}
	if (Transition{State: StateRendering, Frame: 3}).String() != "rendering(3)" {
		t.Fatal("unexpected transition format")
	}
}

func TestNewReporterFallsBackToLogs(t *testing.T) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	reporter := NewReporter(&out, 10, logger)
	if _, ok := reporter.(*LogReporter); !ok {
		t.Fatalf("expected log reporter for non-terminal writer, got %T", reporter)
	}
	for i := 1; i <= 10; i++ {
		reporter.Frame(i, 10)
	}
	reporter.Done()
	if n := strings.Count(logs.String(), "render progress"); n != 10 {
		t.Fatalf("expected one log line per 10%% bucket, got %d", n)
	}
}

func TestBarReporterWrites(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewBarReporter(&buf, 4)
	for i := 1; i <= 4; i++ {
		reporter.Frame(i, 4)
	}
	reporter.Done()
	if !strings.Contains(buf.String(), "rendering") {
		t.Fatalf("bar output missing description: %q", buf.String())
	}
}
