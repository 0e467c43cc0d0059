package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/herlein/rfalarm/pkg/ev1527"
)

// record is the on-disk journal entry
type record struct {
	ID       string `msgpack:"id"`
	Code     string `msgpack:"code"`
	Device   string `msgpack:"device,omitempty"`
	Received int64  `msgpack:"ts"` // unix nanoseconds
}

// Journal appends one msgpack record per event
type Journal struct {
	enc *msgpack.Encoder
	c   io.Closer
}

// NewJournal writes records to w
func NewJournal(w io.Writer) *Journal {
	return &Journal{enc: msgpack.NewEncoder(w)}
}

// OpenJournal opens path for appending, creating it if needed
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j := NewJournal(f)
	j.c = f
	return j, nil
}

func (j *Journal) Deliver(ev Event) error {
	rec := record{
		ID:       ev.ID.String(),
		Code:     ev.Code.String(),
		Device:   ev.Device,
		Received: ev.Received.UnixNano(),
	}
	if err := j.enc.Encode(&rec); err != nil {
		return fmt.Errorf("failed to write journal record: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	if j.c == nil {
		return nil
	}
	return j.c.Close()
}

// ReadJournal decodes every record in r
func ReadJournal(r io.Reader) ([]Event, error) {
	dec := msgpack.NewDecoder(r)
	var events []Event
	for {
		var rec record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("failed to read journal record %d: %w", len(events), err)
		}

		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return events, fmt.Errorf("journal record %d: %w", len(events), err)
		}
		code, err := ev1527.ParseCode(rec.Code)
		if err != nil {
			return events, fmt.Errorf("journal record %d: %w", len(events), err)
		}
		ev := NewEvent(code, rec.Device, time.Unix(0, rec.Received))
		ev.ID = id
		events = append(events, ev)
	}
}

// ReadJournalFile reads a journal written by OpenJournal
func ReadJournalFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()
	return ReadJournal(f)
}
