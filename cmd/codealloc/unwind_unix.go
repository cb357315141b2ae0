//go:build unix

package main

import "github.com/axstin/luau/codegen"

func defaultUnwindHook() codegen.UnwindHook {
	return codegen.NewDWARFUnwindHook()
}
