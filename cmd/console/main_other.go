//go:build !unix

package main

import "log"

func main() {
	log.SetFlags(0)
	log.Fatal("console: raw terminal input is only supported on unix systems")
}
