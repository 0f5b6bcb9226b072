//go:build linux

package cue

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Rendered once on first use; PulseAudio wants interleaved stereo.
var (
	startPCM  []int16
	stopPCM   []int16
	errorPCM  []int16
	soundOnce sync.Once
)

func initSound() {
	startPCM = stereo(synthTone(startFreq, 0.2, startVolume, startDecay))
	stopPCM = stereo(synthTone(stopFreq, 0.2, stopVolume, stopDecay))
	errorPCM = stereo(synthDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay))
}

func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[2*i] = s
		out[2*i+1] = s
	}
	return out
}

// playPCM opens a short-lived PulseAudio playback stream and drains
// the samples through it. A fresh client per cue keeps the daemon
// connection out of the app's steady state; the cues are rare enough
// that setup cost does not matter.
func playPCM(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	feed := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(feed,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go playPCM(startPCM)
}

func PlayStop() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go playPCM(stopPCM)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go playPCM(errorPCM)
}
