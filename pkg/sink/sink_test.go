package sink

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/herlein/rfalarm/pkg/ev1527"
)

var (
	doorCode = ev1527.NewCode(0x0CBBA, ev1527.KeyDoorOpen)
	sosCode  = ev1527.NewCode(0x12345, ev1527.KeySOS)
	at       = time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
)

func TestNewEvent(t *testing.T) {
	c := qt.New(t)

	ev := NewEvent(doorCode, "front door", at)
	c.Assert(ev.ID, qt.Not(qt.Equals), uuid.Nil)
	c.Assert(ev.Address, qt.Equals, uint32(0x0CBBA))
	c.Assert(ev.Key, qt.Equals, ev1527.KeyDoorOpen)
	c.Assert(ev.String(), qt.Equals,
		"2026-05-04 03:02:01.000 0CBBAA addr=0CBBA key=door-open device=front door")

	other := NewEvent(doorCode, "", at)
	c.Assert(other.ID, qt.Not(qt.Equals), ev.ID)
	c.Assert(strings.HasSuffix(other.String(), "device=unknown"), qt.IsTrue)
}

func TestConsole(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	con := NewConsole(&buf)
	c.Assert(con.Deliver(NewEvent(sosCode, "", at)), qt.IsNil)
	c.Assert(buf.String(), qt.Equals, "2026-05-04 03:02:01.000 123458 addr=12345 key=sos device=unknown\n")
	c.Assert(con.Close(), qt.IsNil)
}

type fakePort struct {
	bytes.Buffer
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialFraming(t *testing.T) {
	c := qt.New(t)

	port := &fakePort{}
	s := NewSerial(port)
	c.Assert(s.Deliver(NewEvent(doorCode, "", at)), qt.IsNil)
	c.Assert(s.Deliver(NewEvent(sosCode, "", at)), qt.IsNil)
	c.Assert(port.Bytes(), qt.DeepEquals, []byte{
		'#', 0x0C, 0xBB, 0xAA,
		'#', 0x12, 0x34, 0x58,
	})
	c.Assert(s.Close(), qt.IsNil)
	c.Assert(port.closed, qt.IsTrue)
}

func TestJournalRoundTrip(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	j := NewJournal(&buf)
	want := []Event{
		NewEvent(doorCode, "front door", at),
		NewEvent(sosCode, "", at.Add(1500*time.Millisecond)),
	}
	for _, ev := range want {
		c.Assert(j.Deliver(ev), qt.IsNil)
	}
	c.Assert(j.Close(), qt.IsNil)

	got, err := ReadJournal(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, len(want))
	for i := range want {
		c.Assert(got[i].ID, qt.Equals, want[i].ID)
		c.Assert(got[i].Code, qt.Equals, want[i].Code)
		c.Assert(got[i].Key, qt.Equals, want[i].Key)
		c.Assert(got[i].Device, qt.Equals, want[i].Device)
		c.Assert(got[i].Received.Equal(want[i].Received), qt.IsTrue)
	}
}

func TestJournalFileAppends(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "events.journal")
	for _, code := range []ev1527.Code{doorCode, sosCode} {
		j, err := OpenJournal(path)
		c.Assert(err, qt.IsNil)
		c.Assert(j.Deliver(NewEvent(code, "", at)), qt.IsNil)
		c.Assert(j.Close(), qt.IsNil)
	}

	got, err := ReadJournalFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].Code, qt.Equals, doorCode)
	c.Assert(got[1].Code, qt.Equals, sosCode)
}

// recordSink collects events, optionally failing or blocking.
type recordSink struct {
	mu      sync.Mutex
	events  []Event
	err     error
	entered chan struct{}
	release chan struct{}
	closed  bool
}

func (r *recordSink) Deliver(ev Event) error {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	c := qt.New(t)

	boom := errors.New("boom")
	a, b := &recordSink{err: boom}, &recordSink{}
	m := Multi{a, b}

	c.Assert(m.Deliver(NewEvent(doorCode, "", at)), qt.ErrorIs, boom)
	c.Assert(a.events, qt.HasLen, 1)
	c.Assert(b.events, qt.HasLen, 1)
	c.Assert(m.Close(), qt.IsNil)
	c.Assert(a.closed && b.closed, qt.IsTrue)
}

func TestDispatcherDelivers(t *testing.T) {
	c := qt.New(t)

	rec := &recordSink{}
	d := NewDispatcher(rec, 4)
	d.Name = func(code ev1527.Code) string {
		if code == doorCode {
			return "front door"
		}
		return ""
	}

	d.Deliver(doorCode)
	d.Deliver(sosCode)
	c.Assert(d.Close(), qt.IsNil)
	c.Assert(rec.closed, qt.IsTrue)

	c.Assert(rec.events, qt.HasLen, 2)
	c.Assert(rec.events[0].Device, qt.Equals, "front door")
	c.Assert(rec.events[1].Code, qt.Equals, sosCode)
	c.Assert(d.Stats(), qt.Equals, DispatchStats{Queued: 2, Delivered: 2})

	// closed dispatchers drop
	d.Deliver(doorCode)
	c.Assert(d.Stats().Dropped, qt.Equals, uint64(1))
	c.Assert(d.Close(), qt.ErrorIs, ErrClosed)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	c := qt.New(t)

	rec := &recordSink{entered: make(chan struct{}), release: make(chan struct{})}
	d := NewDispatcher(rec, 1)

	d.Deliver(doorCode)
	<-rec.entered // the sink is busy with the first event

	d.Deliver(sosCode)  // queued
	d.Deliver(doorCode) // dropped
	c.Assert(d.Stats().Dropped, qt.Equals, uint64(1))

	go func() {
		<-rec.entered
	}()
	close(rec.release)
	c.Assert(d.Close(), qt.IsNil)

	c.Assert(d.Stats(), qt.Equals, DispatchStats{Queued: 2, Delivered: 2, Dropped: 1})
	c.Assert(rec.events[1].Code, qt.Equals, sosCode)
}

func TestDispatcherCountsFailures(t *testing.T) {
	c := qt.New(t)

	var logged []string
	d := NewDispatcher(&recordSink{err: errors.New("port gone")}, 2)
	d.DebugLog = func(format string, args ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}

	d.Deliver(doorCode)
	c.Assert(d.Close(), qt.IsNil)
	c.Assert(d.Stats().Failed, qt.Equals, uint64(1))
	c.Assert(d.Stats().Delivered, qt.Equals, uint64(0))
	c.Assert(logged, qt.DeepEquals, []string{"sink: 0CBBAA: port gone"})
}
