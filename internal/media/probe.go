// Package media extracts metadata from uploaded files by shelling out to
// ffprobe. Probing is strictly best-effort: upload handling must keep working
// on hosts without ffmpeg installed.
package media

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober reports the duration of a media file in whole seconds.
type Prober interface {
	Duration(path string) (int, error)
}

// FFProbe is the production Prober backed by the ffprobe binary.
type FFProbe struct{}

// Duration runs ffprobe against the file and returns the container duration
// rounded to the nearest second. The first stream's duration is used when the
// container does not report one.
func (FFProbe) Duration(path string) (int, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseDuration([]byte(raw))
}

func parseDuration(raw []byte) (int, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode probe output: %w", err)
	}
	candidates := []string{out.Format.Duration}
	for _, stream := range out.Streams {
		candidates = append(candidates, stream.Duration)
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		seconds, err := strconv.ParseFloat(candidate, 64)
		if err != nil || seconds < 0 {
			continue
		}
		return int(math.Round(seconds)), nil
	}
	return 0, fmt.Errorf("probe output carries no duration")
}
