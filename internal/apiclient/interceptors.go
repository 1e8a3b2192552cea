package apiclient

import (
	"net/http"
)

// RequestInterceptor may modify an outgoing request before it is sent.
// Returning an error aborts the request.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes a response before it is decoded.
// Returning an error replaces the call result.
type ResponseInterceptor func(req *http.Request, resp *http.Response) error

type registered[T any] struct {
	id int
	fn T
}

// chain is an ordered interceptor list with stable ids
type chain[T any] struct {
	entries []registered[T]
}

func (c *chain[T]) use(id int, fn T) {
	c.entries = append(c.entries, registered[T]{id: id, fn: fn})
}

func (c *chain[T]) eject(id int) bool {
	for i, e := range c.entries {
		if e.id == id {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (c *chain[T]) snapshot() []T {
	out := make([]T, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.fn
	}
	return out
}

// UseRequest appends a request interceptor and returns its id
func (c *Client) UseRequest(fn RequestInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.requestChain.use(c.nextID, fn)
	return c.nextID
}

// EjectRequest removes a request interceptor. It reports whether id was registered.
func (c *Client) EjectRequest(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestChain.eject(id)
}

// UseResponse appends a response interceptor and returns its id
func (c *Client) UseResponse(fn ResponseInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.responseChain.use(c.nextID, fn)
	return c.nextID
}

// EjectResponse removes a response interceptor. It reports whether id was registered.
func (c *Client) EjectResponse(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responseChain.eject(id)
}

// RequestInterceptors returns the number of registered request interceptors
func (c *Client) RequestInterceptors() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.requestChain.entries)
}

func (c *Client) interceptors() ([]RequestInterceptor, []ResponseInterceptor) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestChain.snapshot(), c.responseChain.snapshot()
}
