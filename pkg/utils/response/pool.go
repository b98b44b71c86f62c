package response

import "sync"

// responsePool reuses Response objects to cut per-request allocations
// on hot paths.
var responsePool = sync.Pool{
	New: func() interface{} {
		return &Response{}
	},
}

// Acquire returns a Response from the pool.
// Callers must Release it after the response has been written.
func Acquire() *Response {
	return responsePool.Get().(*Response)
}

// Release resets the Response and returns it to the pool.
// Releasing nil is a no-op.
func Release(r *Response) {
	if r == nil {
		return
	}
	r.reset()
	responsePool.Put(r)
}

func (r *Response) reset() {
	r.Code = 0
	r.HTTPCode = 0
	r.Message = ""
	r.Data = nil
	r.RequestID = ""
	r.Timestamp = 0
}
