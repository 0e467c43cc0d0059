package source

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/irq"
	"github.com/herlein/rfalarm/pkg/pipeline"
	"github.com/herlein/rfalarm/pkg/registers"
	"github.com/herlein/rfalarm/pkg/ring"
	"github.com/herlein/rfalarm/pkg/rle"
	"github.com/herlein/rfalarm/pkg/sampler"
)

func drain(r *ring.Ring[byte]) []byte {
	var out []byte
	for {
		b, ok := r.Pop()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestEdgeSampler(t *testing.T) {
	c := qt.New(t)

	const tick = 50 * time.Microsecond
	raw := ring.New[byte](16, irq.None{})
	es := NewEdgeSampler(sampler.New(raw), tick)

	es.Start(0, false)
	es.Edge(8*tick, true)
	es.Edge(12*tick+tick/2, false) // 4.5 ticks high
	c.Assert(es.Level(), qt.IsFalse)
	es.Advance(16 * tick) // 3.5 ticks plus the carried half
	c.Assert(drain(raw), qt.DeepEquals, []byte{0x00, 0xF0})

	// late timestamps change the level without replaying anything
	es.Edge(10*tick, true)
	es.Advance(24 * tick)
	c.Assert(drain(raw), qt.DeepEquals, []byte{0xFF})
}

func TestEdgeBeforeStart(t *testing.T) {
	c := qt.New(t)

	const tick = 10 * time.Microsecond
	raw := ring.New[byte](16, irq.None{})
	es := NewEdgeSampler(sampler.New(raw), tick)

	es.Edge(100*tick, true)
	es.Start(0, false) // ignored, the edge already set the reference
	es.Edge(104*tick, false)
	es.Advance(108 * tick)
	c.Assert(drain(raw), qt.DeepEquals, []byte{0xF0})
}

type fakeRadio struct {
	mem     [0x10000]byte
	amp     bool
	stuck   bool
	packets [][]byte
	err     error
}

func (f *fakeRadio) Peek(address uint16, length uint16) ([]byte, error) {
	out := make([]byte, length)
	copy(out, f.mem[address:int(address)+int(length)])
	return out, nil
}

func (f *fakeRadio) Poke(address uint16, data []byte) error {
	if address == registers.RegRFST {
		switch data[0] {
		case registers.StrobeSIDLE:
			f.mem[registers.RegMARCSTATE] = byte(registers.StateIDLE)
		case registers.StrobeSRX:
			f.mem[registers.RegMARCSTATE] = byte(registers.StateRX)
		}
		return nil
	}
	copy(f.mem[address:], data)
	return nil
}

func (f *fakeRadio) SetAmplifier(on bool) error {
	if !f.stuck {
		f.amp = on
	}
	return nil
}

func (f *fakeRadio) GetAmpMode() (uint8, error) {
	if f.amp {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeRadio) Stream(ctx context.Context, fn func(packet []byte)) error {
	for _, p := range f.packets {
		fn(p)
	}
	return f.err
}

func TestYardStickAppliesProfileAndStreams(t *testing.T) {
	c := qt.New(t)

	radio := &fakeRadio{packets: [][]byte{{0x00, 0xFF}, {0x0F}}}
	raw := ring.New[byte](16, irq.None{})
	y := &YardStick{Radio: radio, FrequencyHz: 433920000, Amplifier: true}

	c.Assert(y.Run(context.Background(), sampler.New(raw)), qt.IsNil)
	c.Assert(drain(raw), qt.DeepEquals, []byte{0x00, 0xFF, 0x0F})
	c.Assert(radio.amp, qt.IsTrue)

	c.Assert(radio.mem[registers.RegMDMCFG2], qt.Equals, byte(registers.ModASKOOK|registers.SyncCarrier))

	// PKTLEN, then FREQ2..FREQ0
	c.Assert(radio.mem[0xDF02], qt.Equals, byte(255))
	c.Assert(radio.mem[0xDF09:0xDF0C], qt.DeepEquals, []byte{0x12, 0x14, 0x7A})
}

func TestYardStickRegistersOverride(t *testing.T) {
	c := qt.New(t)

	radio := &fakeRadio{}
	override := &registers.RegisterMap{MDMCFG2: registers.ModASKOOK, PKTLEN: 64}
	y := &YardStick{Radio: radio, Registers: override}
	c.Assert(y.Profile(), qt.Equals, override)

	c.Assert(y.Run(context.Background(), sampler.New(ring.New[byte](4, irq.None{}))), qt.IsNil)
	c.Assert(radio.mem[0xDF02], qt.Equals, byte(64))
}

func TestYardStickErrors(t *testing.T) {
	c := qt.New(t)

	s := sampler.New(ring.New[byte](4, irq.None{}))
	c.Assert((&YardStick{}).Run(context.Background(), s), qt.ErrorIs, ErrNoRadio)

	boom := errors.New("device gone")
	y := &YardStick{Radio: &fakeRadio{err: boom}}
	c.Assert(y.Run(context.Background(), s), qt.ErrorIs, boom)

	// the amplifier is confirmed before any packet is sampled
	raw := ring.New[byte](4, irq.None{})
	y = &YardStick{Radio: &fakeRadio{stuck: true, packets: [][]byte{{0xFF}}}, Amplifier: true}
	c.Assert(y.Run(context.Background(), sampler.New(raw)), qt.ErrorIs, ErrAmplifierState)
	c.Assert(drain(raw), qt.HasLen, 0)
}

func TestCaptureRoundTrip(t *testing.T) {
	c := qt.New(t)

	code := ev1527.NewCode(0xCBBAA, ev1527.KeyDoorOpen)
	idle := []rle.Pulse{{High: false, Ticks: 100}}
	pulses := append(idle, code.Transmission(ev1527.DefaultTiming, 2)...)
	pulses = append(pulses, idle...)
	packed := ev1527.Pack(ev1527.Samples(pulses))

	var buf bytes.Buffer
	cw, err := NewCaptureWriter(&buf, sampler.DefaultTick)
	c.Assert(err, qt.IsNil)
	_, err = cw.Write(packed)
	c.Assert(err, qt.IsNil)
	c.Assert(cw.Bytes(), qt.Equals, int64(len(packed)))
	c.Assert(cw.Close(), qt.IsNil)
	c.Assert(buf.Len(), qt.Equals, headerSize+len(packed))

	capture, err := NewCapture(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(capture.Tick(), qt.Equals, sampler.DefaultTick)

	p, err := pipeline.New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)
	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	capture.Step = p.Poll
	c.Assert(capture.Run(context.Background(), p.Sampler()), qt.IsNil)
	p.Flush()

	c.Assert(got, qt.DeepEquals, []ev1527.Code{code})
	c.Assert(p.Stats().RawDropped, qt.Equals, uint64(0))
}

func TestSteppedReplayKeepsRecordingTime(t *testing.T) {
	c := qt.New(t)

	// two different sensors 1.5 s apart: the second must not fall inside
	// the refractory window of the first however fast the replay runs
	a := ev1527.NewCode(0xCBBAA, ev1527.KeyDoorOpen)
	b := ev1527.NewCode(0x12345, ev1527.KeyDoorOpen)
	quiet := []rle.Pulse{{High: false, Ticks: 30000}}

	var pulses []rle.Pulse
	pulses = append(pulses, quiet...)
	pulses = append(pulses, a.Transmission(ev1527.DefaultTiming, 4)...)
	pulses = append(pulses, quiet...)
	pulses = append(pulses, b.Transmission(ev1527.DefaultTiming, 4)...)
	pulses = append(pulses, quiet...)

	var buf bytes.Buffer
	cw, err := NewCaptureWriter(&buf, sampler.DefaultTick)
	c.Assert(err, qt.IsNil)
	_, err = cw.Write(ev1527.Pack(ev1527.Samples(pulses)))
	c.Assert(err, qt.IsNil)
	c.Assert(cw.Close(), qt.IsNil)

	capture, err := NewCapture(&buf)
	c.Assert(err, qt.IsNil)

	p, err := pipeline.New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)
	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	capture.Step = p.Poll
	capture.Clock = p.Tick
	capture.ClockPeriod = p.Config().PollInterval
	c.Assert(capture.Stepped(), qt.IsTrue)

	start := time.Now()
	c.Assert(capture.Run(context.Background(), p.Sampler()), qt.IsNil)
	p.Flush()

	c.Assert(got, qt.DeepEquals, []ev1527.Code{a, b})
	c.Assert(p.Refractory(), qt.IsFalse)
	c.Assert(p.Stats().RawDropped, qt.Equals, uint64(0))
	c.Assert(time.Since(start) < 4*time.Second, qt.IsTrue)
}

func TestCaptureFile(t *testing.T) {
	c := qt.New(t)

	path := c.TempDir() + "/burst.ook"
	cw, err := CreateCapture(path, 100*time.Microsecond)
	c.Assert(err, qt.IsNil)
	for i := 0; i < 40; i++ {
		cw.Push(byte(i))
	}
	c.Assert(cw.Close(), qt.IsNil)

	capture, err := OpenCapture(path)
	c.Assert(err, qt.IsNil)
	defer capture.Close()
	c.Assert(capture.Tick(), qt.Equals, 100*time.Microsecond)

	capture.Realtime = true
	raw := ring.New[byte](64, irq.None{})
	c.Assert(capture.Run(context.Background(), sampler.New(raw)), qt.IsNil)

	got := drain(raw)
	c.Assert(got, qt.HasLen, 40)
	c.Assert(got[39], qt.Equals, byte(39))
}

func TestCaptureCancelled(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	cw, err := NewCaptureWriter(&buf, time.Millisecond)
	c.Assert(err, qt.IsNil)
	_, err = cw.Write(make([]byte, 4*captureChunk))
	c.Assert(err, qt.IsNil)
	c.Assert(cw.Close(), qt.IsNil)

	capture, err := NewCapture(&buf)
	c.Assert(err, qt.IsNil)
	capture.Realtime = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = capture.Run(ctx, sampler.New(ring.New[byte](4, irq.None{})))
	c.Assert(err, qt.ErrorIs, context.Canceled)
}

func TestCaptureBadHeader(t *testing.T) {
	c := qt.New(t)

	_, err := NewCapture(bytes.NewReader([]byte("OOK")))
	c.Assert(err, qt.ErrorIs, ErrBadCapture)

	_, err = NewCapture(bytes.NewReader([]byte("WAVE\x01\x00\x00\x00\x32\x00\x00\x00")))
	c.Assert(err, qt.ErrorIs, ErrBadCapture)

	_, err = NewCapture(bytes.NewReader([]byte("OOKC\x02\x00\x00\x00\x32\x00\x00\x00")))
	c.Assert(err, qt.ErrorIs, ErrBadCapture)

	_, err = NewCaptureWriter(&bytes.Buffer{}, 0)
	c.Assert(err, qt.Not(qt.IsNil))
}
