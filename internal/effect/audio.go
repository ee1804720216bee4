package effect

import (
	"context"
	"log/slog"
)

// LogAudio is an AudioSink that only logs the cue decision. Playback lives
// in the front end.
type LogAudio struct {
	Logger *slog.Logger
}

func (a LogAudio) Play(ctx context.Context, cue string) error {
	if a.Logger != nil {
		a.Logger.DebugContext(ctx, "audio cue", "cue", cue)
	}
	return nil
}
