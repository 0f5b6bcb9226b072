//go:build darwin

package cue

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// One long-lived miniaudio device plays every cue: CoreAudio device
// setup is too slow to do per tick. The data callback pulls from the
// atomically swapped buffer below.
var (
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	startPCM  []byte
	stopPCM   []byte
	errorPCM  []byte
	soundOnce sync.Once

	playBuf atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: feedDevice})
	return err
}

func initSound() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}

	startPCM = pcmBytes(synthTone(startFreq, 0.03, startVolume, startDecay))
	stopPCM = pcmBytes(synthTone(stopFreq, 0.05, stopVolume, stopDecay))
	errorPCM = pcmBytes(synthDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay))

	if err := initDevice(); err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

// pcmBytes packs mono samples little-endian for the S16 device.
func pcmBytes(mono []int16) []byte {
	out := make([]byte, len(mono)*2)
	for i, s := range mono {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// feedDevice runs on the audio thread. It copies the active cue into
// the device buffer and zero-fills everything past it, dropping the
// buffer pointer once the cue is fully consumed.
func feedDevice(pOutput, _ []byte, frameCount uint32) {
	samples := playBuf.Load()
	if samples == nil || len(*samples) == 0 {
		clearBytes(pOutput)
		return
	}

	pos := playPos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		playBuf.Store(nil)
		clearBytes(pOutput)
		return
	}

	n := frameCount * 2
	if n > remaining {
		n = remaining
	}
	copy(pOutput[:n], (*samples)[pos:pos+n])
	playPos.Store(pos + n)
	clearBytes(pOutput[n:])
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func playPCM(samples []byte) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	if device == nil {
		return
	}

	// No-op when not running; guarantees a clean restart position.
	device.Stop()

	playPos.Store(0)
	playBuf.Store(&samples)

	if err := device.Start(); err != nil {
		// CoreAudio invalidates the device across sleep/wake; rebuild
		// it once before giving up on this cue.
		device.Uninit()
		if err := initDevice(); err != nil {
			playBuf.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			playBuf.Store(nil)
		}
	}
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playPCM(startPCM)
}

func PlayStop() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playPCM(stopPCM)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playPCM(errorPCM)
}
