/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package enginepool

import liberr "github.com/nabbar/httpedge/errors"

const (
	CodeInvalidConfig liberr.CodeError = liberr.MinPkgEnginePool + iota
	CodeDuplicateName
	CodeUnknownName
	CodeStart
	CodeStop
	CodeMerge
)

func init() {
	liberr.RegisterIdFctMessage(CodeInvalidConfig, msg)
	liberr.RegisterIdFctMessage(CodeDuplicateName, msg)
	liberr.RegisterIdFctMessage(CodeUnknownName, msg)
	liberr.RegisterIdFctMessage(CodeStart, msg)
	liberr.RegisterIdFctMessage(CodeStop, msg)
	liberr.RegisterIdFctMessage(CodeMerge, msg)
}

func msg(code liberr.CodeError) string {
	switch code {
	case CodeInvalidConfig:
		return "pool config is not valid"
	case CodeDuplicateName:
		return "pool already has an endpoint with this name"
	case CodeUnknownName:
		return "pool has no endpoint with this name"
	case CodeStart:
		return "one or more endpoints failed to start"
	case CodeStop:
		return "one or more endpoints failed to stop"
	case CodeMerge:
		return "pool merge failed for one or more endpoints"
	}
	return liberr.NullMessage
}
