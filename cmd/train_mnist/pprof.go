package main

import "log"
import "os"
import "runtime/pprof"

// profile collects cpu profile data into the default.pgo file until the
// returned function is called
func profile() func() {
	f, err := os.Create("default.pgo")
	if err != nil {
		log.Printf("pgo: %v", err)
		return func() {}
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		log.Printf("pgo: %v", err)
		f.Close()
		return func() {}
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}
