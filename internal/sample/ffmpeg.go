package sample

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/dhowden/tag"
)

// SampleRate and ChannelCount mirror the engine-wide fixed format; they are
// duplicated here (rather than imported from the audio package) to keep this
// package free of a dependency on the rest of the engine.
const (
	SampleRate   = 44100
	ChannelCount = 2
)

// FileProvider decodes a local audio file into raw f32le stereo PCM by
// piping it through an ffmpeg subprocess, so it can accept whatever input
// container or codec ffmpeg itself supports. It gives no duration hint:
// Duration always returns 0.
type FileProvider struct {
	Path string
}

// Duration always returns 0, the "no hint" value. It reads the file's tags,
// but nothing from them is used as a duration. A 0 hint is not an error: the
// Pool grows its buffer segment by segment whatever the hint.
func (p *FileProvider) Duration() time.Duration {
	f, err := os.Open(p.Path)
	if err != nil {
		return 0
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("FileProvider: could not read tags for duration hint", "path", p.Path, "error", err)
		return 0
	}
	// go-tag does not expose duration directly on all formats; callers that
	// need a strict hint should prefer ffprobe. We fall back to 0 here, which
	// is a legal "no hint" per the Sample Reader provider contract.
	_ = m
	return 0
}

// Open spawns `ffmpeg -i <path> -f f32le -ac 2 -ar 44100 pipe:1` and returns a
// Reader that decodes its stdout as it arrives.
func (p *FileProvider) Open() (Reader, error) {
	ctx, cancel := context.WithCancel(context.Background())

	args := []string{
		"-loglevel", "error",
		"-i", p.Path,
		"-f", "f32le",
		"-ac", fmt.Sprintf("%d", ChannelCount),
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-vn",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				slog.Debug("ffmpeg", "path", p.Path, "output", string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	return &pipeReader{
		src:    stdout,
		cmd:    cmd,
		cancel: cancel,
		path:   p.Path,
	}, nil
}

// pipeReader adapts an io.Reader of little-endian f32 bytes into a Reader of
// Samples. Decode failures and early pipe closure are logged and reported as
// end-of-stream, per the Sample Reader contract's DecodeFailure policy.
type pipeReader struct {
	src    io.Reader
	cmd    *exec.Cmd
	cancel context.CancelFunc
	path   string
	eof    bool
}

func (r *pipeReader) ReadInto(out []Sample) int {
	if r.eof || len(out) == 0 {
		return 0
	}

	raw := make([]byte, len(out)*4)
	n, err := io.ReadFull(r.src, raw)
	// io.ReadFull may return a short, non-multiple-of-4 read at end of stream;
	// trim to whole samples only.
	usable := n - (n % 4)
	samples := usable / 4
	for i := 0; i < samples; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}

	if err != nil || n == 0 {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			slog.Warn("FileProvider: decode error, treating as end-of-stream", "path", r.path, "error", err)
		}
		r.eof = true
		if r.cancel != nil {
			r.cancel()
		}
		if r.cmd != nil {
			go r.cmd.Wait()
		}
	}

	return samples
}

// PipeProvider wraps an already-decoded raw f32le PCM stream (for example the
// output of an upstream transcode step) directly as a Reader, with no
// subprocess involved.
type PipeProvider struct {
	Src      io.Reader
	Hint     time.Duration
	resolved bool
}

func (p *PipeProvider) Duration() time.Duration { return p.Hint }

func (p *PipeProvider) Open() (Reader, error) {
	if p.resolved {
		return nil, fmt.Errorf("sample: PipeProvider is single-use and was already opened")
	}
	p.resolved = true
	return &pipeReader{src: p.Src, path: "<pipe>"}, nil
}
