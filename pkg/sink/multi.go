package sink

import "errors"

// Multi fans an event out to several sinks. A failing sink does not stop
// the others.
type Multi []Sink

func (m Multi) Deliver(ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
