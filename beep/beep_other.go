//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx     *malgo.AllocatedContext
	device       *malgo.Device
	startSamples []byte
	endSamples   []byte
	soundOnce    sync.Once

	// consumed by the driver callback; position and buffer swap
	// atomically so playback needs no lock
	playBuf atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func initSound() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}

	startSamples = pcmBytes(tone(startFreq, startDur, startDecay))
	endSamples = pcmBytes(tone(endFreq, endDur, endDecay))

	if err := initDevice(); err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{
		Data: dataCallback,
	})
	return err
}

func dataCallback(pOutput, _ []byte, frameCount uint32) {
	samples := playBuf.Load()
	if samples == nil || len(*samples) == 0 {
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}

	pos := playPos.Load()
	total := uint32(len(*samples))
	want := frameCount * 2
	remaining := total - pos

	if remaining == 0 {
		playBuf.Store(nil)
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}
	if want > remaining {
		want = remaining
	}

	copy(pOutput[:want], (*samples)[pos:pos+want])
	playPos.Store(pos + want)

	for i := want; i < frameCount*2; i++ {
		pOutput[i] = 0
	}
}

func play(samples []byte) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	if device == nil {
		return
	}
	device.Stop()

	playPos.Store(0)
	playBuf.Store(&samples)

	if err := device.Start(); err != nil {
		// device may be stale after sleep/wake; rebuild once
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
	play(startSamples)
}

func PlayEnd() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	play(endSamples)
}
