// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import "net/http"

// ResponseWriterWrapper is a wrapper for writing http responses with custom
// status code logic.
type ResponseWriterWrapper struct {
	http.ResponseWriter
	statusCode        int
	statusCodeWritten bool
}

// NewWrappedWriter returns a new ResponseWriterWrapper.
func NewWrappedWriter(original http.ResponseWriter) *ResponseWriterWrapper {
	return &ResponseWriterWrapper{
		ResponseWriter:    original,
		statusCodeWritten: false,
	}
}

// StatusCode returns the last written status code.
func (rw *ResponseWriterWrapper) StatusCode() int {
	return rw.statusCode
}

// WriteHeader stores the provided status code and writes it.
func (rw *ResponseWriterWrapper) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.statusCodeWritten = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write writes the provided data.
func (rw *ResponseWriterWrapper) Write(data []byte) (int, error) {
	if !rw.statusCodeWritten {
		rw.statusCode = http.StatusOK
	}
	return rw.ResponseWriter.Write(data)
}
