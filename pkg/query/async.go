package query

// Result carries the outcome of an asynchronous call: exactly one of Stat or
// Err is set.
type Result struct {
	Stat *FullStat
	Err  error
}

// QueryAsync runs Query on its own goroutine and delivers the outcome on the
// returned channel. The channel is buffered, so the result never blocks even
// if the caller walks away. The client still allows only one in-flight
// request: do not start another call before the result arrives.
func (c *Client) QueryAsync() <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		stat, err := c.Query()
		ch <- Result{Stat: stat, Err: err}
	}()

	return ch
}

// BasicStatResult carries the outcome of an asynchronous basic stat call.
type BasicStatResult struct {
	Stat *BasicStat
	Err  error
}

// BasicStatAsync runs a handshake followed by a basic stat request on its own
// goroutine, delivering the outcome on the returned buffered channel.
func (c *Client) BasicStatAsync() <-chan BasicStatResult {
	ch := make(chan BasicStatResult, 1)
	go func() {
		token, err := c.Handshake()
		if err != nil {
			ch <- BasicStatResult{Err: err}
			return
		}

		stat, err := c.BasicStat(token)
		ch <- BasicStatResult{Stat: stat, Err: err}
	}()

	return ch
}
