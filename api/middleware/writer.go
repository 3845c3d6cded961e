package middleware

import (
	"bytes"
	"net/http"
)

// recorder wraps a ResponseWriter to remember the status and size written.
// When capture is set the body is also buffered for idempotent replay.
type recorder struct {
	http.ResponseWriter
	status  int
	written int64
	capture *bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w}
}

func (r *recorder) WriteHeader(code int) {
	if r.status != 0 {
		return
	}
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.WriteHeader(http.StatusOK)
	}
	if r.capture != nil {
		r.capture.Write(b)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

// Status reports the written status, 200 when the handler wrote nothing.
func (r *recorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *recorder) headerSent() bool { return r.status != 0 }

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
