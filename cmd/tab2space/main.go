package main

// main is the entry point for the tab2space application. Build-time
// variables live in root.go.
func main() {
	Execute()
}
