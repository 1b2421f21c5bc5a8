package main

import "os"
import "os/signal"
import "runtime/pprof"
import "syscall"

// -pgo is looked up before flag parsing so the profile covers data loading too
func init() {
	for _, arg := range os.Args[1:] {
		if arg != "-pgo" && arg != "--pgo" {
			continue
		}
		f, err := os.Create("default.pgo")
		if err != nil {
			println(err.Error())
			return
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			println(err.Error())
			f.Close()
			return
		}
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			pprof.StopCPUProfile()
			f.Close()
			os.Exit(130)
		}()
		return
	}
}
