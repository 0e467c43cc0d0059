package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/herlein/rfalarm/pkg/confirm"
	"github.com/herlein/rfalarm/pkg/decoder"
	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/irq"
	"github.com/herlein/rfalarm/pkg/rle"
)

// feed plays levels into the sampler, running a scheduler pass every 128
// samples so the raw ring never overflows.
func feed(p *Pipeline, levels []bool) {
	s := p.Sampler()
	for i, l := range levels {
		s.Sample(l)
		if i%128 == 127 {
			p.Poll()
		}
	}
	p.Poll()
}

func idle(n uint16) []bool {
	return ev1527.Samples([]rle.Pulse{{High: false, Ticks: n}})
}

func TestEndToEnd(t *testing.T) {
	c := qt.New(t)

	p, err := New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	want := ev1527.Code{0x0C, 0xBB, 0xAA}
	levels := idle(100)
	levels = append(levels, ev1527.Samples(want.Transmission(ev1527.DefaultTiming, 2))...)
	levels = append(levels, idle(100)...)
	feed(p, levels)

	c.Assert(got, qt.DeepEquals, []ev1527.Code{want})

	st := p.Stats()
	c.Assert(st.RawDropped, qt.Equals, uint64(0))
	c.Assert(st.PulseDropped, qt.Equals, uint64(0))
	c.Assert(st.Decoder.Frames, qt.Equals, uint64(2))
	c.Assert(st.Filter.Delivered, qt.Equals, uint64(1))
}

func TestLongBurstDeliversOnce(t *testing.T) {
	c := qt.New(t)

	p, err := New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	want := ev1527.NewCode(0x12345, ev1527.KeyTamper)
	feed(p, ev1527.Samples(want.Transmission(ev1527.DefaultTiming, 8)))

	c.Assert(got, qt.DeepEquals, []ev1527.Code{want})
	c.Assert(p.Refractory(), qt.IsTrue)
	c.Assert(p.Stats().Filter.Suppressed, qt.Equals, uint64(6))
}

func TestRefractoryExpires(t *testing.T) {
	c := qt.New(t)

	cfg := DefaultConfig()
	cfg.RefractoryTicks = 3
	p, err := New(cfg, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	code := ev1527.Code{0xAB, 0xCD, 0xE2}
	burst := append(idle(50), ev1527.Samples(code.Transmission(ev1527.DefaultTiming, 2))...)

	feed(p, burst)
	feed(p, burst)
	c.Assert(got, qt.HasLen, 1)

	for i := 0; i < 3; i++ {
		p.Tick()
	}
	feed(p, burst)
	c.Assert(got, qt.HasLen, 2)
}

func TestNoiseIsIgnored(t *testing.T) {
	c := qt.New(t)

	p, err := New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	// evenly spaced glitches never form a sync pair
	var noise []rle.Pulse
	for i := 0; i < 200; i++ {
		noise = append(noise, rle.Pulse{High: true, Ticks: 4}, rle.Pulse{High: false, Ticks: 5})
	}
	feed(p, ev1527.Samples(noise))

	c.Assert(got, qt.HasLen, 0)
	c.Assert(p.Stats().Decoder.SyncFound, qt.Equals, uint64(0))
}

func TestFlushEndsFiniteCapture(t *testing.T) {
	c := qt.New(t)

	p, err := New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	var got []ev1527.Code
	c.Assert(p.Register(func(code ev1527.Code) { got = append(got, code) }), qt.IsNil)

	// two bare frames with no closing high: the last low is only seen on
	// Flush. The leading idle keeps the sample count a whole number of bytes.
	code := ev1527.Code{0x0C, 0xBB, 0xAA}
	frame := code.MarshalFrame(ev1527.DefaultTiming)
	levels := append(idle(4), ev1527.Samples(append(frame, frame...))...)
	c.Assert(len(levels)%8, qt.Equals, 0)
	feed(p, levels)
	c.Assert(got, qt.HasLen, 0)

	p.Flush()
	c.Assert(got, qt.DeepEquals, []ev1527.Code{code})
}

func TestRegisterTwice(t *testing.T) {
	c := qt.New(t)

	p, err := New(nil, &irq.Lock{})
	c.Assert(err, qt.IsNil)
	c.Assert(p.Register(func(ev1527.Code) {}), qt.IsNil)
	c.Assert(p.Register(func(ev1527.Code) {}), qt.ErrorIs, confirm.ErrAlreadyRegistered)
}

func TestConcurrentSampler(t *testing.T) {
	c := qt.New(t)

	cfg := DefaultConfig()
	cfg.RawCapacity = 4096
	cfg.PollInterval = time.Millisecond
	p, err := New(cfg, &irq.Lock{})
	c.Assert(err, qt.IsNil)

	delivered := make(chan ev1527.Code, 4)
	c.Assert(p.Register(func(code ev1527.Code) {
		select {
		case delivered <- code:
		default:
		}
	}), qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	want := ev1527.Code{0x55, 0xAA, 0x0E}
	s := p.Sampler()
	for _, l := range ev1527.Samples(want.Transmission(ev1527.DefaultTiming, 3)) {
		s.Sample(l)
	}

	select {
	case code := <-delivered:
		c.Assert(code, qt.Equals, want)
	case <-time.After(5 * time.Second):
		c.Fatal("no code delivered")
	}
	cancel()
	wg.Wait()
}

func TestConfigValidate(t *testing.T) {
	c := qt.New(t)

	c.Assert(DefaultConfig().Validate(), qt.IsNil)
	c.Assert(DefaultConfig().RefractoryTicks, qt.Equals, uint32(100))

	cfg := DefaultConfig()
	cfg.PollInterval = 0
	c.Assert(cfg.Validate(), qt.ErrorIs, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Decoder.DataMax = 1
	err := cfg.Validate()
	c.Assert(err, qt.ErrorIs, ErrInvalidConfig)
	c.Assert(err, qt.ErrorIs, decoder.ErrInvalidRatio)

	_, err = New(cfg, irq.None{})
	c.Assert(err, qt.ErrorIs, ErrInvalidConfig)
}

func TestTicksFor(t *testing.T) {
	c := qt.New(t)
	c.Assert(TicksFor(time.Second, 10*time.Millisecond), qt.Equals, uint32(100))
	c.Assert(TicksFor(15*time.Millisecond, 10*time.Millisecond), qt.Equals, uint32(2))
	c.Assert(TicksFor(0, 10*time.Millisecond), qt.Equals, uint32(0))
}
