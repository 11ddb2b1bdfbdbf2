package process

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
)

// ProbeResult represents the output of ffprobe -show_streams.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
}

// Stream represents one elementary stream of the input.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"` // "video", "audio", "data", ...
	CodecName string `json:"codec_name"`
	TimeBase  string `json:"time_base"`
	StartTime string `json:"start_time"`
}

// Layout describes how the input's streams map onto the transcoder's
// fixed two-track output (stream 0 video, stream 1 audio).
type Layout struct {
	Streams []Stream
}

// HasVideo returns true if the input has at least one video stream.
func (l Layout) HasVideo() bool {
	return l.count("video") > 0
}

// HasAudio returns true if the input has at least one audio stream.
func (l Layout) HasAudio() bool {
	return l.count("audio") > 0
}

// Describe returns a short human-readable summary, e.g. "0:video/h264 1:audio/aac".
func (l Layout) Describe() string {
	s := ""
	for i, st := range l.Streams {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%s/%s", st.Index, st.CodecType, st.CodecName)
	}
	return s
}

func (l Layout) count(codecType string) int {
	n := 0
	for _, st := range l.Streams {
		if st.CodecType == codecType {
			n++
		}
	}
	return n
}

// Prober runs ffprobe against the input file.
type Prober struct {
	ffprobePath string
}

// NewProber creates a prober. An empty path means "ffprobe" from PATH.
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath}
}

// ProbeStreams executes ffprobe and returns the stream layout of path.
func (p *Prober) ProbeStreams(ctx context.Context, path string) (Layout, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	output, err := cmd.Output()
	if err != nil {
		return Layout{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

// parseProbeOutput decodes ffprobe JSON into a Layout sorted by index.
func parseProbeOutput(output []byte) (Layout, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Layout{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	streams := result.Streams
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].Index < streams[j].Index
	})

	return Layout{Streams: streams}, nil
}

// Available checks if the ffprobe binary can be found.
func (p *Prober) Available() bool {
	_, err := exec.LookPath(p.ffprobePath)
	return err == nil
}
