/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package pathmap

import liberr "github.com/nabbar/httpedge/errors"

const (
	CodeDuplicateKey liberr.CodeError = liberr.MinPkgPathMap + iota
)

func init() {
	liberr.RegisterIdFctMessage(CodeDuplicateKey, msg)
}

func msg(code liberr.CodeError) string {
	switch code {
	case CodeDuplicateKey:
		return "a binding already exists for this path and wildcard flag"
	}
	return liberr.NullMessage
}
