// Command wvlib converts and queries word vector files.
//
//	wvlib convert vectors.bin vectors.tar.gz
//	wvlib nearest -n 10 vectors.tar.gz
//	wvlib similarity vectors.tar.gz
//	wvlib analogy vectors.tar.gz
//
// Every flag can also be set from the environment with the WVLIB_ prefix
// (WVLIB_MAX_RANK=100000) or from a file passed with --config.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
