package parser

import "errors"

var (
	errNoRoot = errors.New("mapping has no root node")
	errCycle  = errors.New("mapping parent links form a cycle")
)
