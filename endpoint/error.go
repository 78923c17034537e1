/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import liberr "github.com/nabbar/httpedge/errors"

const (
	CodeInvalidConfig liberr.CodeError = liberr.MinPkgEndpoint + iota
	CodeListenFailed
	CodeAlreadyRunning
	CodeMalformedRequest
	CodeBodyTooLarge
	CodeHandlerPanic
	CodeStrangeResult
	CodeWriteFailed
)

func init() {
	liberr.RegisterIdFctMessage(CodeInvalidConfig, msg)
	liberr.RegisterIdFctMessage(CodeListenFailed, msg)
	liberr.RegisterIdFctMessage(CodeAlreadyRunning, msg)
	liberr.RegisterIdFctMessage(CodeMalformedRequest, msg)
	liberr.RegisterIdFctMessage(CodeBodyTooLarge, msg)
	liberr.RegisterIdFctMessage(CodeHandlerPanic, msg)
	liberr.RegisterIdFctMessage(CodeStrangeResult, msg)
	liberr.RegisterIdFctMessage(CodeWriteFailed, msg)
}

func msg(code liberr.CodeError) string {
	switch code {
	case CodeInvalidConfig:
		return "endpoint config is not valid"
	case CodeListenFailed:
		return "endpoint could not bind its listening socket"
	case CodeAlreadyRunning:
		return "endpoint is already running"
	case CodeMalformedRequest:
		return "request could not be parsed"
	case CodeBodyTooLarge:
		return "request body exceeds the configured limit"
	case CodeHandlerPanic:
		return "request handler panicked"
	case CodeStrangeResult:
		return "request handler returned an unexpected value"
	case CodeWriteFailed:
		return "response could not be written"
	}
	return liberr.NullMessage
}
