/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package tokenbucket

import liberr "github.com/nabbar/httpedge/errors"

const (
	CodeInvalidInitialBurst liberr.CodeError = liberr.MinPkgTokenBckt + iota
	CodeInvalidQueueGrant
	CodeInvalidFlowRate
	CodeInvalidBurstSize
)

func init() {
	liberr.RegisterIdFctMessage(CodeInvalidInitialBurst, msg)
	liberr.RegisterIdFctMessage(CodeInvalidQueueGrant, msg)
	liberr.RegisterIdFctMessage(CodeInvalidFlowRate, msg)
	liberr.RegisterIdFctMessage(CodeInvalidBurstSize, msg)
}

func msg(code liberr.CodeError) string {
	switch code {
	case CodeInvalidInitialBurst:
		return "initial burst size exceeds max burst size"
	case CodeInvalidQueueGrant:
		return "max queue grant size exceeds min(max burst size, max queue size)"
	case CodeInvalidFlowRate:
		return "flow rate must be a non-negative, finite number of tokens per second"
	case CodeInvalidBurstSize:
		return "max burst size must be a positive, finite token count"
	}
	return liberr.NullMessage
}
