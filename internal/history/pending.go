package history

import "context"

// Pending is the future result of an asynchronous history fetch. It resolves
// once the response has been applied to (or rejected by) the paginator.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the fetch has completed
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the outcome once Done is closed, nil before that
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the fetch completes or ctx is done
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
