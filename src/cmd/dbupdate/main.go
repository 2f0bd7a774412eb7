package main

// Version is set at link time via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	execute()
}
